// Package search provides keyword search over tasks and study
// materials. Meilisearch is the primary backend with a SQL ILIKE
// fallback, so search keeps working when Meilisearch is down.
package search

import "studysync/api/internal/policy"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultTask     ResultType = "task"
	ResultMaterial ResultType = "material"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	Branch   string     `json:"branch,omitempty"`
	Semester int        `json:"semester,omitempty"`
}

// Query describes a search request. Viewer drives the task visibility
// filter; materials are visible to every authenticated account.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Viewer     policy.Viewer
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a keyword search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// TaskRecord is the data we index for a task. CreatorRole lets the
// cohort visibility rule run as an index filter.
type TaskRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	CreatedBy   string `json:"createdBy"`
	AssignedTo  string `json:"assignedTo"`
	Branch      string `json:"branch"`
	Semester    int    `json:"semester"`
	CreatorRole string `json:"creatorRole"`
}

// MaterialRecord is the data we index for a study material.
type MaterialRecord struct {
	ID         string `json:"id"`
	TagID      string `json:"tagId"`
	Filename   string `json:"filename"`
	Subject    string `json:"subject"`
	CourseCode string `json:"courseCode"`
	Branch     string `json:"branch"`
	Semester   int    `json:"semester"`
}
