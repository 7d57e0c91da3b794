package viewmodels

// TreeNode is one node of a hierarchical extraction response.
type TreeNode struct {
	ExternalID  string            `json:"external_id"`
	PartNumber  string            `json:"part_number,omitempty"`
	Description string            `json:"description,omitempty"`
	Quantity    string            `json:"quantity"`
	Depth       int               `json:"depth"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Children    []*TreeNode       `json:"children,omitempty"`
}

// FlattenedItem is one row of a flattened extraction response.
type FlattenedItem struct {
	ExternalID        string            `json:"external_id"`
	PartNumber        string            `json:"part_number,omitempty"`
	Description       string            `json:"description,omitempty"`
	Depth             int               `json:"depth"`
	Lineage           string            `json:"lineage,omitempty"`
	EffectiveQuantity string            `json:"effective_quantity"`
	Attributes        map[string]string `json:"attributes,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ReconciliationRecord struct {
	Item               FlattenedItem `json:"item"`
	Classification     string        `json:"classification"`
	ValidationErrors   []FieldError  `json:"validation_errors,omitempty"`
	MatchedExistingKey string        `json:"matched_existing_key,omitempty"`
	DuplicateOfIndex   *int          `json:"duplicate_of_index,omitempty"`
}

type ValidationResult struct {
	Total          int                    `json:"total"`
	Valid          int                    `json:"valid"`
	Invalid        int                    `json:"invalid"`
	NewCount       int                    `json:"new_count"`
	ExistingCount  int                    `json:"existing_count"`
	DuplicateCount int                    `json:"duplicate_count"`
	Records        []ReconciliationRecord `json:"records"`
}

type BatchOutcome struct {
	BatchIndex    int    `json:"batch_index"`
	ImportedCount int    `json:"imported_count"`
	FailedCount   int    `json:"failed_count"`
	FirstError    string `json:"first_error,omitempty"`
}

type ImportJob struct {
	ID              string         `json:"id"`
	Status          string         `json:"status"`
	BatchSize       int            `json:"batch_size"`
	TotalItems      int            `json:"total_items"`
	ImportedCount   int            `json:"imported_count"`
	FailedCount     int            `json:"failed_count"`
	CancelRequested bool           `json:"cancel_requested"`
	FailureReason   string         `json:"failure_reason,omitempty"`
	Batches         []BatchOutcome `json:"batches,omitempty"`
}
