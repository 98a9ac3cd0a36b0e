package api

import (
	"time"

	"github.com/rubiojr/regsearch/pkg/engine"
)

// StateResponse is a session's complete state plus the rendered page of
// its active category.
type StateResponse struct {
	Session       string              `json:"session"`
	State         engine.State        `json:"state"`
	View          engine.CategoryView `json:"view"`
	ResultsWindow []int               `json:"results_window"`
}

type SearchRequest struct {
	Name         string `json:"name"`
	Location     string `json:"location,omitempty"`
	Profession   string `json:"profession,omitempty"`
	DatabaseType string `json:"database_type,omitempty"`
}

type PageRequest struct {
	Page int `json:"page"`
}

type CategoryRequest struct {
	Category string `json:"category"`
}

type FilterRequest struct {
	Text string `json:"text"`
}

// SortRequest sets Order when given, otherwise toggles the direction.
type SortRequest struct {
	Order string `json:"order,omitempty"`
}

type ReportRequest struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Sessions  int       `json:"sessions"`
	Listeners int       `json:"listeners"`
}
