package events

import "github.com/google/uuid"

// V1 BOM domain events, published on the application event bus.

type ImportJobCreated struct {
	JobID      uuid.UUID
	TenantID   uuid.UUID
	TotalItems int
}

type ImportJobFinished struct {
	JobID         uuid.UUID
	TenantID      uuid.UUID
	Status        string
	ImportedCount int
	FailedCount   int
}
