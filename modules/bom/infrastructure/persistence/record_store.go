package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/partstack/partstack/modules/bom/services"
	"github.com/partstack/partstack/pkg/composables"
)

// PgRecordStore writes one import batch into the destination records table as
// a single transaction, so a batch either lands whole or not at all.
type PgRecordStore struct{}

func NewPgRecordStore() services.RecordStore {
	return &PgRecordStore{}
}

func (s *PgRecordStore) WriteBatch(ctx context.Context, tenantID uuid.UUID, records []services.TargetRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, record := range records {
			fields := "{}"
			if len(record.Fields) > 0 {
				b, err := json.Marshal(record.Fields)
				if err != nil {
					return err
				}
				fields = string(b)
			}
			batch.Queue(`
				INSERT INTO bom_records (tenant_id, part_number, description, quantity, fields)
				VALUES ($1, $2, $3, $4::numeric, $5::jsonb)
			`, pgUUID(tenantID), record.PartNumber, record.Description, record.Quantity.String(), fields)
		}

		results := tx.SendBatch(txCtx, batch)
		defer results.Close()
		for range records {
			if _, err := results.Exec(); err != nil {
				return err
			}
		}
		return results.Close()
	})
	return classifyWriteError(err)
}

// classifyWriteError separates infrastructure faults, which must abort the
// whole run, from data-level failures isolated to one batch. Connection-class
// SQLSTATEs (08xxx), admin shutdown (57P01) and resource exhaustion (53xxx)
// mean the store itself is gone.
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, composables.ErrNoPool) || errors.Is(err, composables.ErrNoTx) {
		return &services.StoreUnavailableError{Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			pgErr.Code == "57P01" {
			return &services.StoreUnavailableError{Err: err}
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return &services.StoreUnavailableError{Err: err}
	}
	return err
}
