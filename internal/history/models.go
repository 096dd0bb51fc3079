// Package history keeps an audit trail of pipeline operations and completed
// renders. It is write-mostly; nothing in it is used to restore a session.
package history

import "time"

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Operation struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Render struct {
	ID           string    `json:"id"`
	OperationID  string    `json:"operation_id,omitempty"`
	VideoPath    string    `json:"video_path"`
	SourceURL    string    `json:"source_url"`
	Query        string    `json:"query"`
	SnippetCount int       `json:"snippet_count"`
	CreatedAt    time.Time `json:"created_at"`
}
