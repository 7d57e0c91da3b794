package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/partstack/partstack/modules/bom/domain/importjob"
	"github.com/partstack/partstack/modules/bom/infrastructure/persistence"
	"github.com/partstack/partstack/modules/bom/services"
	"github.com/partstack/partstack/pkg/composables"
)

type importOptions struct {
	tenantID  uuid.UUID
	input     string
	mapping   string
	batchSize int
	apply     bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import flattened items into the parts destination table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCLIImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Flattened items JSON file (required)")
	cmd.Flags().StringVar(&opts.mapping, "mapping", "", "JSON file mapping source attributes to target field ids")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Rows per write batch (default from BOM_DEFAULT_BATCH_SIZE)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Apply changes to DB (default is dry-run)")

	var tenant string
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant UUID (required)")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("tenant")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(strings.TrimSpace(tenant))
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --tenant: %w", err))
		}
		opts.tenantID = id
		return nil
	}

	return cmd
}

type importReport struct {
	DryRun        bool   `json:"dry_run"`
	JobID         string `json:"job_id,omitempty"`
	Status        string `json:"status,omitempty"`
	TotalItems    int    `json:"total_items"`
	ImportedCount int    `json:"imported_count"`
	FailedCount   int    `json:"failed_count"`
	Skipped       int    `json:"skipped"`
}

func runCLIImport(ctx context.Context, opts importOptions) error {
	items, err := readFlattenedItems(opts.input)
	if err != nil {
		return withCode(exitValidation, err)
	}
	mapping, err := readFieldMapping(opts.mapping)
	if err != nil {
		return withCode(exitValidation, err)
	}

	pool, err := connectDB(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()

	ctx = composables.WithPool(ctx, pool)
	ctx = composables.WithTenantID(ctx, opts.tenantID)

	svc := services.NewBOMService(
		persistence.NewPartRepository(),
		persistence.NewImportJobRepository(),
		persistence.NewPgRecordStore(),
		nil,
	)

	validation, err := svc.Validate(ctx, items)
	if err != nil {
		return withCode(exitDB, err)
	}

	importable := make([]services.ReconciliationRecord, 0, len(validation.Records))
	for _, record := range validation.Records {
		switch record.Classification {
		case services.ClassificationNew, services.ClassificationExisting:
			importable = append(importable, record)
		}
	}
	skipped := len(validation.Records) - len(importable)

	if !opts.apply {
		if err := writeJSONLine(importReport{
			DryRun:     true,
			TotalItems: len(importable),
			Skipped:    skipped,
		}); err != nil {
			return err
		}
		if validation.Invalid > 0 {
			return withCode(exitValidation, fmt.Errorf("%d of %d items invalid", validation.Invalid, validation.Total))
		}
		return nil
	}

	result, err := svc.Import(ctx, services.ImportInput{
		TenantID:  opts.tenantID,
		Records:   importable,
		Mapping:   services.FieldMapping(mapping),
		BatchSize: opts.batchSize,
	})
	if err != nil {
		return withCode(exitDBWrite, err)
	}

	if err := writeJSONLine(importReport{
		JobID:         result.JobID.String(),
		Status:        string(result.Status),
		TotalItems:    result.TotalItems,
		ImportedCount: result.ImportedCount,
		FailedCount:   result.FailedCount,
		Skipped:       skipped,
	}); err != nil {
		return err
	}

	switch result.Status {
	case importjob.StatusFailed:
		return withCode(exitDBWrite, fmt.Errorf("import failed after %d of %d rows", result.ImportedCount, result.TotalItems))
	case importjob.StatusPartiallyFailed:
		return withCode(exitDBWrite, fmt.Errorf("%d rows failed to import", result.FailedCount))
	}
	return nil
}
