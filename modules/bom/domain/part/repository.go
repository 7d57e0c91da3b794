package part

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Part, int64, error)
	GetByUUID(ctx context.Context, partUUID uuid.UUID) (Part, error)
	GetByPartNumber(ctx context.Context, partNumber string) (Part, error)
	Create(ctx context.Context, p Part) (Part, error)
}
