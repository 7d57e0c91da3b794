package models

import "time"

type Part struct {
	TenantID    string
	PartUUID    string
	PartNumber  string
	Description string
	Quantity    string
	Attributes  []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ImportJob struct {
	ID              string
	TenantID        string
	Status          string
	BatchSize       int
	TotalItems      int
	ImportedCount   int
	FailedCount     int
	CancelRequested bool
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ImportJobBatch struct {
	JobID         string
	BatchIndex    int
	ImportedCount int
	FailedCount   int
	FirstError    string
	CreatedAt     time.Time
}
