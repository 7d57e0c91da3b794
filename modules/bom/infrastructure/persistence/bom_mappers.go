package persistence

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/partstack/partstack/modules/bom/domain/importjob"
	"github.com/partstack/partstack/modules/bom/domain/part"
	"github.com/partstack/partstack/modules/bom/infrastructure/persistence/models"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func toDomainPart(row *models.Part) (part.Part, error) {
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return part.Part{}, errors.Wrap(err, "parse part tenant id")
	}
	partUUID, err := uuid.Parse(row.PartUUID)
	if err != nil {
		return part.Part{}, errors.Wrap(err, "parse part uuid")
	}
	quantity, err := decimal.NewFromString(row.Quantity)
	if err != nil {
		return part.Part{}, errors.Wrap(err, "parse part quantity")
	}
	var attributes map[string]string
	if len(row.Attributes) > 0 {
		if err := json.Unmarshal(row.Attributes, &attributes); err != nil {
			return part.Part{}, errors.Wrap(err, "unmarshal part attributes")
		}
	}
	return part.Hydrate(
		tenantID,
		partUUID,
		row.PartNumber,
		row.Description,
		quantity,
		attributes,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDomainImportJob(row *models.ImportJob, batches []importjob.BatchOutcome) (importjob.Job, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return importjob.Job{}, errors.Wrap(err, "parse import job id")
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return importjob.Job{}, errors.Wrap(err, "parse import job tenant id")
	}
	return importjob.Hydrate(
		id,
		tenantID,
		importjob.Status(row.Status),
		row.BatchSize,
		row.TotalItems,
		row.ImportedCount,
		row.FailedCount,
		batches,
		row.CancelRequested,
		row.FailureReason,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func partAttributesJSON(attributes map[string]string) (string, error) {
	if len(attributes) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(attributes)
	if err != nil {
		return "", errors.Wrap(err, "marshal part attributes")
	}
	return string(b), nil
}
