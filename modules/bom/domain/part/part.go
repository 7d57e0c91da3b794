package part

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("part not found")

// Part is one row of the authoritative parts catalog that reconciliation
// cross-references incoming items against.
type Part struct {
	tenantID    uuid.UUID
	partUUID    uuid.UUID
	partNumber  string
	description string
	quantity    decimal.Decimal
	attributes  map[string]string
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID uuid.UUID, partNumber, description string) Part {
	return Part{
		tenantID:    tenantID,
		partNumber:  normalizePartNumber(partNumber),
		description: strings.TrimSpace(description),
	}
}

func Hydrate(
	tenantID uuid.UUID,
	partUUID uuid.UUID,
	partNumber string,
	description string,
	quantity decimal.Decimal,
	attributes map[string]string,
	createdAt time.Time,
	updatedAt time.Time,
) Part {
	return Part{
		tenantID:    tenantID,
		partUUID:    partUUID,
		partNumber:  normalizePartNumber(partNumber),
		description: strings.TrimSpace(description),
		quantity:    quantity,
		attributes:  attributes,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (p Part) TenantID() uuid.UUID           { return p.tenantID }
func (p Part) PartUUID() uuid.UUID           { return p.partUUID }
func (p Part) PartNumber() string            { return p.partNumber }
func (p Part) Description() string           { return p.description }
func (p Part) Quantity() decimal.Decimal     { return p.quantity }
func (p Part) Attributes() map[string]string { return p.attributes }
func (p Part) CreatedAt() time.Time          { return p.createdAt }
func (p Part) UpdatedAt() time.Time          { return p.updatedAt }
func (p Part) IsZero() bool                  { return p.partUUID == uuid.Nil && p.partNumber == "" }

func (p Part) WithQuantity(q decimal.Decimal) Part {
	p.quantity = q
	return p
}

func normalizePartNumber(v string) string { return strings.TrimSpace(v) }
