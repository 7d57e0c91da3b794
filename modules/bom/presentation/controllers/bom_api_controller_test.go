package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/partstack/partstack/modules/bom/domain/importjob"
	"github.com/partstack/partstack/modules/bom/domain/part"
	"github.com/partstack/partstack/modules/bom/services"
	"github.com/partstack/partstack/pkg/application"
	"github.com/partstack/partstack/pkg/composables"
)

type stubPartRepository struct{}

func (stubPartRepository) GetPaginated(ctx context.Context, params *part.FindParams) ([]part.Part, int64, error) {
	return nil, 0, nil
}

func (stubPartRepository) GetByUUID(ctx context.Context, partUUID uuid.UUID) (part.Part, error) {
	return part.Part{}, part.ErrNotFound
}

func (stubPartRepository) GetByPartNumber(ctx context.Context, partNumber string) (part.Part, error) {
	return part.Part{}, part.ErrNotFound
}

func (stubPartRepository) Create(ctx context.Context, p part.Part) (part.Part, error) {
	return p, nil
}

type stubJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]importjob.Job
}

func newStubJobRepository() *stubJobRepository {
	return &stubJobRepository{jobs: map[uuid.UUID]importjob.Job{}}
}

func (r *stubJobRepository) Create(ctx context.Context, j importjob.Job) (importjob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID()] = j
	return j, nil
}

func (r *stubJobRepository) GetByID(ctx context.Context, jobID uuid.UUID) (importjob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return importjob.Job{}, importjob.ErrNotFound
	}
	// Mirror the SQL repository: another tenant's job id reads as missing.
	if tenantID, err := composables.UseTenantID(ctx); err == nil && j.TenantID() != tenantID {
		return importjob.Job{}, importjob.ErrNotFound
	}
	return j, nil
}

func (r *stubJobRepository) mutate(jobID uuid.UUID, fn func(j *importjob.Job) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return importjob.ErrNotFound
	}
	if err := fn(&j); err != nil {
		return err
	}
	r.jobs[jobID] = j
	return nil
}

func (r *stubJobRepository) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.Start() })
}

func (r *stubJobRepository) AdvanceBatch(ctx context.Context, jobID uuid.UUID, outcome importjob.BatchOutcome) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.RecordBatch(outcome) })
}

func (r *stubJobRepository) Complete(ctx context.Context, jobID uuid.UUID) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.Finish() })
}

func (r *stubJobRepository) Fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.Fail(reason) })
}

func (r *stubJobRepository) RequestCancel(ctx context.Context, jobID uuid.UUID) error {
	if _, err := r.GetByID(ctx, jobID); err != nil {
		return err
	}
	return r.mutate(jobID, func(j *importjob.Job) error { return j.RequestCancel() })
}

func (r *stubJobRepository) CancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error) {
	j, err := r.GetByID(ctx, jobID)
	if err != nil {
		return false, err
	}
	return j.CancelRequested(), nil
}

type stubRecordStore struct {
	mu     sync.Mutex
	writes int
}

func (s *stubRecordStore) WriteBatch(ctx context.Context, tenantID uuid.UUID, records []services.TargetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes += len(records)
	return nil
}

func newTestRouter(t *testing.T) (*mux.Router, *stubJobRepository) {
	t.Helper()
	jobs := newStubJobRepository()
	svc := services.NewBOMService(stubPartRepository{}, jobs, &stubRecordStore{}, nil)

	app := application.New(&application.ApplicationOptions{})
	app.RegisterServices(svc)

	r := mux.NewRouter()
	NewBOMAPIController(app).Register(r)
	return r, jobs
}

func doJSON(t *testing.T, router *mux.Router, method, path string, tenantID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if tenantID != "" {
		req.Header.Set(tenantHeader, tenantID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func extractionRequestBody() map[string]any {
	return map[string]any{
		"mode": "flattened",
		"items": []map[string]any{
			{"external_id": "root", "description": "Root", "quantity": "1"},
			{"external_id": "sub-a", "parent_external_id": "root", "description": "Sub A", "quantity": "2"},
			{"external_id": "p1", "parent_external_id": "sub-a", "part_number": "P001", "description": "Widget", "quantity": "2"},
			{"external_id": "sub-b", "parent_external_id": "root", "description": "Sub B", "quantity": "1"},
			{"external_id": "p2", "parent_external_id": "sub-b", "part_number": "P001", "description": "Widget", "quantity": "3"},
		},
	}
}

func TestBOMAPI_CreateExtraction_Flattened(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bom/api/extractions", "", extractionRequestBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Mode  string `json:"mode"`
		Items []struct {
			PartNumber        string `json:"part_number"`
			EffectiveQuantity string `json:"effective_quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "flattened", resp.Mode)

	var widgetQty string
	for _, item := range resp.Items {
		if item.PartNumber == "P001" {
			widgetQty = item.EffectiveQuantity
		}
	}
	require.Equal(t, "7", widgetQty)
}

func TestBOMAPI_CreateExtraction_Hierarchical(t *testing.T) {
	router, _ := newTestRouter(t)

	body := extractionRequestBody()
	body["mode"] = "hierarchical"
	rec := doJSON(t, router, http.MethodPost, "/bom/api/extractions", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tree []struct {
			ExternalID string `json:"external_id"`
			Children   []json.RawMessage
		} `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tree, 1)
	require.Equal(t, "root", resp.Tree[0].ExternalID)
	require.Len(t, resp.Tree[0].Children, 2)
}

func TestBOMAPI_CreateExtraction_CycleIsUnprocessable(t *testing.T) {
	router, _ := newTestRouter(t)

	body := map[string]any{
		"items": []map[string]any{
			{"external_id": "a", "parent_external_id": "b"},
			{"external_id": "b", "parent_external_id": "a"},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/bom/api/extractions", "", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "BOM_STRUCTURE", resp.Code)
}

func TestBOMAPI_CreateValidation_RequiresTenant(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bom/api/validations", "", map[string]any{"items": []any{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBOMAPI_CreateValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	body := map[string]any{
		"items": []map[string]any{
			{"external_id": "p1", "part_number": "P001", "description": "Widget", "effective_quantity": "7"},
			{"external_id": "bad"},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/bom/api/validations", uuid.NewString(), body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total   int `json:"total"`
		Valid   int `json:"valid"`
		Invalid int `json:"invalid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	require.Equal(t, 1, resp.Valid)
	require.Equal(t, 1, resp.Invalid)
}

func TestBOMAPI_ImportAndPollJob(t *testing.T) {
	router, jobs := newTestRouter(t)
	tenantID := uuid.NewString()

	body := map[string]any{
		"items": []map[string]any{
			{"external_id": "p1", "part_number": "P001", "description": "Widget", "effective_quantity": "7"},
			{"external_id": "bad"},
		},
		"mapping": map[string]string{"material": "fld_material"},
	}
	rec := doJSON(t, router, http.MethodPost, "/bom/api/imports", tenantID, body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		JobID   string `json:"job_id"`
		Status  string `json:"status"`
		Skipped int    `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, string(importjob.StatusRunning), resp.Status)
	require.Equal(t, 1, resp.Skipped, "invalid row is not imported")

	jobID := uuid.MustParse(resp.JobID)
	require.Eventually(t, func() bool {
		job, err := jobs.GetByID(context.Background(), jobID)
		return err == nil && job.Status() == importjob.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	getRec := doJSON(t, router, http.MethodGet, "/bom/api/jobs/"+resp.JobID, tenantID, nil)
	require.Equal(t, http.StatusOK, getRec.Code)

	var jobResp struct {
		Status        string `json:"status"`
		ImportedCount int    `json:"imported_count"`
	}
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &jobResp))
	require.Equal(t, string(importjob.StatusCompleted), jobResp.Status)
	require.Equal(t, 1, jobResp.ImportedCount)
}

func TestBOMAPI_GetJob_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/bom/api/jobs/"+uuid.NewString(), uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBOMAPI_GetJob_OtherTenantIsNotFound(t *testing.T) {
	router, jobs := newTestRouter(t)

	job, err := jobs.Create(context.Background(), importjob.New(uuid.New(), 10, 5))
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/bom/api/jobs/"+job.ID().String(), uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBOMAPI_CancelJob_OtherTenantIsNotFound(t *testing.T) {
	router, jobs := newTestRouter(t)

	job, err := jobs.Create(context.Background(), importjob.New(uuid.New(), 10, 5))
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/bom/api/jobs/"+job.ID().String()+":cancel", uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	cancelled, err := jobs.CancelRequested(context.Background(), job.ID())
	require.NoError(t, err)
	require.False(t, cancelled, "a foreign tenant must not flag the job")
}

func TestBOMAPI_CancelJob(t *testing.T) {
	router, jobs := newTestRouter(t)
	tenantID := uuid.New()

	job, err := jobs.Create(context.Background(), importjob.New(tenantID, 10, 5))
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/bom/api/jobs/"+job.ID().String()+":cancel", tenantID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		CancelRequested bool `json:"cancel_requested"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.CancelRequested)
}
