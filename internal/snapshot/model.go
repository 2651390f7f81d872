// Package snapshot defines the sync contract between the desktop client and
// the server: the typed Snapshot, the schema every submitted or stored
// document must satisfy, and the validator that turns untyped JSON into a
// Snapshot with defaults applied.
package snapshot

import "encoding/json"

// Priority is the closed set of task priorities understood by the client.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

// Priorities lists the accepted values in the order reported to clients.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow, PriorityNone}

// Default values applied to absent optional fields.
const (
	DefaultNoteTitle = "Untitled Note"
	DefaultPriority  = PriorityNone
)

type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Notes       string    `json:"notes"`
	Completed   bool      `json:"completed"`
	CreatedAt   string    `json:"created_at"`
	CompletedAt *string   `json:"completed_at"`
	Subtasks    []Subtask `json:"subtasks"`
	ProjectID   string    `json:"project_id"`
	Priority    Priority  `json:"priority"`
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Snapshot is the complete synchronized state of one user. Timestamps are
// kept as the ISO-8601 text the client produced.
//
// Tasks is keyed by project id. A key without a matching entry in Projects
// is accepted as an orphaned list.
type Snapshot struct {
	Timestamp string            `json:"timestamp"`
	Projects  []Project         `json:"projects"`
	Tasks     map[string][]Task `json:"tasks"`
	Notes     []Note            `json:"notes"`
}

// Encode serializes s in wire shape. The result is what gets stored.
func Encode(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// TaskCount returns the number of tasks across all lists.
func (s *Snapshot) TaskCount() int {
	n := 0
	for _, list := range s.Tasks {
		n += len(list)
	}
	return n
}
