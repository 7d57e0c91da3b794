package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partstack/partstack/modules/bom/domain/part"
	"github.com/partstack/partstack/modules/bom/infrastructure/persistence/models"
	"github.com/partstack/partstack/pkg/composables"
	"github.com/partstack/partstack/pkg/repo"
)

const partColumns = `tenant_id, part_uuid, part_number, description, quantity::text, attributes, created_at, updated_at`

type PartRepository struct{}

func NewPartRepository() part.Repository {
	return &PartRepository{}
}

func (r *PartRepository) GetPaginated(ctx context.Context, params *part.FindParams) ([]part.Part, int64, error) {
	if params == nil {
		params = &part.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"tenant_id = $1"}
	args := []interface{}{pgUUID(tenantID)}
	if q := strings.TrimSpace(params.Q); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, "(part_number ILIKE $2 OR description ILIKE $2)")
	}

	query := `
		SELECT ` + partColumns + `
		FROM bom_parts
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY part_number
	`
	query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []part.Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	// Release the result set before the count query; inside a transaction both
	// run on the same connection.
	rows.Close()

	var total int64
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bom_parts
		WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *PartRepository) GetByUUID(ctx context.Context, partUUID uuid.UUID) (part.Part, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return part.Part{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return part.Part{}, err
	}

	row := tx.QueryRow(ctx, `
		SELECT `+partColumns+`
		FROM bom_parts
		WHERE tenant_id = $1 AND part_uuid = $2
	`, pgUUID(tenantID), pgUUID(partUUID))
	return scanPartRow(row)
}

func (r *PartRepository) GetByPartNumber(ctx context.Context, partNumber string) (part.Part, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return part.Part{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return part.Part{}, err
	}

	row := tx.QueryRow(ctx, `
		SELECT `+partColumns+`
		FROM bom_parts
		WHERE tenant_id = $1 AND part_number = $2
	`, pgUUID(tenantID), strings.TrimSpace(partNumber))
	return scanPartRow(row)
}

func (r *PartRepository) Create(ctx context.Context, p part.Part) (part.Part, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return part.Part{}, err
	}
	attributes, err := partAttributesJSON(p.Attributes())
	if err != nil {
		return part.Part{}, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO bom_parts (tenant_id, part_number, description, quantity, attributes)
		VALUES ($1, $2, $3, $4::numeric, $5::jsonb)
		RETURNING `+partColumns+`
	`, pgUUID(p.TenantID()), p.PartNumber(), p.Description(), p.Quantity().String(), attributes)
	return scanPartRow(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPart(s rowScanner) (part.Part, error) {
	var row models.Part
	if err := s.Scan(
		&row.TenantID,
		&row.PartUUID,
		&row.PartNumber,
		&row.Description,
		&row.Quantity,
		&row.Attributes,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		return part.Part{}, err
	}
	return toDomainPart(&row)
}

func scanPartRow(row pgx.Row) (part.Part, error) {
	p, err := scanPart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return part.Part{}, part.ErrNotFound
	}
	return p, err
}
