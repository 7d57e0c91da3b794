package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
	"github.com/partstack/partstack/modules/bom/domain/importjob"
	"github.com/partstack/partstack/modules/bom/presentation/mappers"
	"github.com/partstack/partstack/modules/bom/presentation/viewmodels"
	"github.com/partstack/partstack/modules/bom/services"
	"github.com/partstack/partstack/pkg/application"
	"github.com/partstack/partstack/pkg/composables"
	"github.com/partstack/partstack/pkg/httpapi"
)

const tenantHeader = "X-Tenant-ID"

type BOMAPIController struct {
	app       application.Application
	bom       *services.BOMService
	apiPrefix string
}

func NewBOMAPIController(app application.Application) application.Controller {
	return &BOMAPIController{
		app:       app,
		bom:       app.Service(services.BOMService{}).(*services.BOMService),
		apiPrefix: "/bom/api",
	}
}

func (c *BOMAPIController) Key() string {
	return c.apiPrefix
}

func (c *BOMAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/extractions", c.instrumentAPI("extractions", c.CreateExtraction)).Methods(http.MethodPost)
	api.HandleFunc("/validations", c.instrumentAPI("validations", c.CreateValidation)).Methods(http.MethodPost)
	api.HandleFunc("/imports", c.instrumentAPI("imports", c.CreateImport)).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id}", c.instrumentAPI("jobs", c.GetJob)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}:cancel", c.instrumentAPI("jobs_cancel", c.CancelJob)).Methods(http.MethodPost)
}

type rawItemRequest struct {
	ExternalID       string            `json:"external_id"`
	ParentExternalID *string           `json:"parent_external_id,omitempty"`
	PartNumber       string            `json:"part_number,omitempty"`
	Description      string            `json:"description,omitempty"`
	Quantity         decimal.Decimal   `json:"quantity,omitempty"`
	Attributes       map[string]string `json:"attributes,omitempty"`
}

func (r rawItemRequest) toDomain() assembly.RawItem {
	return assembly.RawItem{
		ExternalID:        r.ExternalID,
		ParentExternalID:  r.ParentExternalID,
		PartNumber:        r.PartNumber,
		Description:       r.Description,
		QuantityPerParent: r.Quantity,
		Attributes:        r.Attributes,
	}
}

type flattenedItemRequest struct {
	ExternalID        string            `json:"external_id"`
	PartNumber        string            `json:"part_number,omitempty"`
	Description       string            `json:"description,omitempty"`
	Depth             int               `json:"depth,omitempty"`
	Lineage           string            `json:"lineage,omitempty"`
	EffectiveQuantity decimal.Decimal   `json:"effective_quantity,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
}

func (r flattenedItemRequest) toDomain() assembly.FlattenedItem {
	return assembly.FlattenedItem{
		ExternalID:        r.ExternalID,
		PartNumber:        r.PartNumber,
		Description:       r.Description,
		Depth:             r.Depth,
		Lineage:           r.Lineage,
		EffectiveQuantity: r.EffectiveQuantity,
		Attributes:        r.Attributes,
	}
}

func toDomainFlattenedItems(in []flattenedItemRequest) []assembly.FlattenedItem {
	out := make([]assembly.FlattenedItem, 0, len(in))
	for _, item := range in {
		out = append(out, item.toDomain())
	}
	return out
}

type createExtractionRequest struct {
	Items          []rawItemRequest    `json:"items"`
	Mode           string              `json:"mode,omitempty"`
	Strategy       string              `json:"strategy,omitempty"`
	PathSeparator  string              `json:"path_separator,omitempty"`
	DeclaredRoots  []string            `json:"declared_roots,omitempty"`
	HierarchyDepth int                 `json:"hierarchy_depth,omitempty"`
	ParentChildMap map[string][]string `json:"parent_child_map,omitempty"`
}

type extractionResponse struct {
	Mode     string                     `json:"mode"`
	Tree     []*viewmodels.TreeNode     `json:"tree,omitempty"`
	Items    []viewmodels.FlattenedItem `json:"items,omitempty"`
	Warnings []string                   `json:"warnings,omitempty"`
}

func (c *BOMAPIController) CreateExtraction(w http.ResponseWriter, r *http.Request) {
	var req createExtractionRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BOM_INVALID_BODY", err.Error(), nil)
		return
	}

	items := make([]assembly.RawItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, item.toDomain())
	}

	result, err := c.bom.Extract(r.Context(), services.ExtractionInput{
		Items:          items,
		Mode:           assembly.Mode(req.Mode),
		Strategy:       assembly.Strategy(req.Strategy),
		PathSeparator:  req.PathSeparator,
		DeclaredRoots:  req.DeclaredRoots,
		HierarchyDepth: req.HierarchyDepth,
		ParentChildMap: req.ParentChildMap,
	})
	if err != nil {
		c.writeServiceError(w, err)
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, extractionResponse{
		Mode:     string(result.Mode),
		Tree:     mappers.TreeToViewModel(result.Tree),
		Items:    mappers.FlattenedItemsToViewModels(result.Items),
		Warnings: result.Warnings,
	})
}

type createValidationRequest struct {
	Items []flattenedItemRequest `json:"items"`
}

func (c *BOMAPIController) CreateValidation(w http.ResponseWriter, r *http.Request) {
	ctx, ok := c.requireTenant(w, r)
	if !ok {
		return
	}
	var req createValidationRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BOM_INVALID_BODY", err.Error(), nil)
		return
	}

	result, err := c.bom.Validate(ctx, toDomainFlattenedItems(req.Items))
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.ValidationResultToViewModel(result))
}

type createImportRequest struct {
	Items     []flattenedItemRequest `json:"items"`
	Mapping   map[string]string      `json:"mapping,omitempty"`
	BatchSize int                    `json:"batch_size,omitempty"`
}

// CreateImport validates the submitted items, then imports the NEW and
// EXISTING ones in a background job. INVALID and DUPLICATE_IN_BATCH rows are
// reported back, never written.
func (c *BOMAPIController) CreateImport(w http.ResponseWriter, r *http.Request) {
	ctx, ok := c.requireTenant(w, r)
	if !ok {
		return
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BOM_TENANT_REQUIRED", err.Error(), nil)
		return
	}

	var req createImportRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BOM_INVALID_BODY", err.Error(), nil)
		return
	}

	validation, err := c.bom.Validate(ctx, toDomainFlattenedItems(req.Items))
	if err != nil {
		c.writeServiceError(w, err)
		return
	}

	importable := make([]services.ReconciliationRecord, 0, len(validation.Records))
	for _, record := range validation.Records {
		switch record.Classification {
		case services.ClassificationNew, services.ClassificationExisting:
			importable = append(importable, record)
		}
	}

	result, err := c.bom.Import(ctx, services.ImportInput{
		TenantID:  tenantID,
		Records:   importable,
		Mapping:   req.Mapping,
		BatchSize: req.BatchSize,
		Async:     true,
	})
	if err != nil {
		c.writeServiceError(w, err)
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusAccepted, struct {
		JobID      string                       `json:"job_id"`
		Status     string                       `json:"status"`
		TotalItems int                          `json:"total_items"`
		Skipped    int                          `json:"skipped"`
		Validation *viewmodels.ValidationResult `json:"validation"`
	}{
		JobID:      result.JobID.String(),
		Status:     string(result.Status),
		TotalItems: result.TotalItems,
		Skipped:    len(validation.Records) - len(importable),
		Validation: mappers.ValidationResultToViewModel(validation),
	})
}

func (c *BOMAPIController) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx, ok := c.requireTenant(w, r)
	if !ok {
		return
	}
	jobID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BOM_INVALID_JOB_ID", "invalid job id", nil)
		return
	}

	job, err := c.bom.Job(ctx, jobID)
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.ImportJobToViewModel(job))
}

func (c *BOMAPIController) CancelJob(w http.ResponseWriter, r *http.Request) {
	ctx, ok := c.requireTenant(w, r)
	if !ok {
		return
	}
	jobID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BOM_INVALID_JOB_ID", "invalid job id", nil)
		return
	}

	if err := c.bom.CancelJob(ctx, jobID); err != nil {
		c.writeServiceError(w, err)
		return
	}
	job, err := c.bom.Job(ctx, jobID)
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.ImportJobToViewModel(job))
}

// requireTenant resolves the tenant header into the request context. Every
// endpoint touching tenant-scoped state goes through here.
func (c *BOMAPIController) requireTenant(w http.ResponseWriter, r *http.Request) (context.Context, bool) {
	header := r.Header.Get(tenantHeader)
	if header == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BOM_TENANT_REQUIRED", "missing "+tenantHeader+" header", nil)
		return nil, false
	}
	tenantID, err := uuid.Parse(header)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BOM_TENANT_REQUIRED", "invalid "+tenantHeader+" header", nil)
		return nil, false
	}
	return composables.WithTenantID(r.Context(), tenantID), true
}

func (c *BOMAPIController) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		_ = httpapi.WriteError(w, svcErr.Status, svcErr.Code, svcErr.Message, nil)
		return
	}
	if errors.Is(err, importjob.ErrNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "BOM_JOB_NOT_FOUND", "import job not found", nil)
		return
	}
	if errors.Is(err, importjob.ErrTerminal) {
		_ = httpapi.WriteError(w, http.StatusConflict, "BOM_JOB_TERMINAL", "import job already finished", nil)
		return
	}

	var duplicateErr *assembly.DuplicateExternalIDError
	var unresolvedErr *assembly.UnresolvedParentError
	var cycleErr *assembly.CycleError
	var quantityErr *assembly.InvalidQuantityError
	switch {
	case errors.As(err, &duplicateErr),
		errors.As(err, &unresolvedErr),
		errors.As(err, &cycleErr),
		errors.As(err, &quantityErr):
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "BOM_STRUCTURE", err.Error(), nil)
		return
	}
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "BOM_INTERNAL", "internal error", nil)
}
