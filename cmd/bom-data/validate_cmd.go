package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/partstack/partstack/modules/bom/infrastructure/persistence"
	"github.com/partstack/partstack/modules/bom/services"
	"github.com/partstack/partstack/pkg/composables"
)

type validateOptions struct {
	tenantID uuid.UUID
	input    string
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Reconcile flattened items against the parts catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Flattened items JSON file (required)")

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

func runValidate(ctx context.Context, opts validateOptions) error {
	items, err := readFlattenedItems(opts.input)
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

	reconciler := services.NewReconciler(persistence.NewPartRepository())
	result, err := reconciler.Reconcile(ctx, items)
	if err != nil {
		return withCode(exitDB, err)
	}

	if err := writeJSONLine(struct {
		Total          int `json:"total"`
		Valid          int `json:"valid"`
		Invalid        int `json:"invalid"`
		NewCount       int `json:"new_count"`
		ExistingCount  int `json:"existing_count"`
		DuplicateCount int `json:"duplicate_count"`
	}{
		Total:          result.Total,
		Valid:          result.Valid,
		Invalid:        result.Invalid,
		NewCount:       result.NewCount,
		ExistingCount:  result.ExistingCount,
		DuplicateCount: result.DuplicateCount,
	}); err != nil {
		return err
	}

	for _, record := range result.Records {
		if record.Classification != services.ClassificationInvalid {
			continue
		}
		for _, fieldErr := range record.ValidationErrors {
			fmt.Printf("invalid %s: %s %s\n", record.Item.ExternalID, fieldErr.Field, fieldErr.Code)
		}
	}

	if result.Invalid > 0 {
		return withCode(exitValidation, fmt.Errorf("%d of %d items invalid", result.Invalid, result.Total))
	}
	return nil
}
