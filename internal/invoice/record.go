package invoice

import "time"

// Record statuses
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Record is the outcome of processing one invoice file
type Record struct {
	ID            string    `json:"id"`
	SourceFile    string    `json:"source_file"`
	ProcessedFile string    `json:"processed_file,omitempty"`
	ArchivedFile  string    `json:"archived_file,omitempty"`
	CompanyName   string    `json:"company_name"`
	Amount        string    `json:"amount"`
	Source        string    `json:"source,omitempty"` // extractor that produced the fields
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary is the outcome of one batch run
type Summary struct {
	Processed []*Record
	Failed    []string
}
