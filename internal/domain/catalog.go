package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Dataset is an immutable snapshot of a permissioned data asset. A dataset
// without a semantic document cannot be ranked and is excluded from candidacy
// at collection time.
type Dataset struct {
	ID           uuid.UUID
	Name         string
	Document     string // semantic YAML document; empty means absent
	DataSourceID uuid.UUID
}

// HasDocument reports whether the dataset carries a semantic document.
func (d Dataset) HasDocument() bool {
	return d.Document != ""
}

// FoundValue is a concrete value discovered in storage via vector similarity,
// tagged with the coordinate it was found at.
type FoundValue struct {
	Value    string
	Database string
	Schema   string
	Table    string
	Column   string
}

// Coordinate renders the origin of the value for logs and prompt evidence.
func (v FoundValue) Coordinate() string {
	return fmt.Sprintf("%s.%s.%s", v.Database, v.Table, v.Column)
}

// FilteredDataset is a ranked candidate the LLM filter confirmed as relevant
// for a single query or topic.
type FilteredDataset struct {
	ID       uuid.UUID
	Name     string
	Document string
}

// SearchRequest is the tool invocation input.
type SearchRequest struct {
	UserID            uuid.UUID
	SessionID         uuid.UUID
	UserRequest       string
	SpecificQueries   []string
	ExploratoryTopics []string
	ValueSearchTerms  []string
}

// DatasetResult is one entry of the final search output.
type DatasetResult struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name,omitempty"`
	Document string    `json:"document,omitempty"`
}

// SearchOutput is the tool invocation result. It is always well-formed:
// failures surface as an empty Results list plus an explanatory Message.
type SearchOutput struct {
	Message           string          `json:"message"`
	SpecificQueries   []string        `json:"specific_queries"`
	ExploratoryTopics []string        `json:"exploratory_topics"`
	DurationMS        int64           `json:"duration_ms"`
	Results           []DatasetResult `json:"results"`
	DataSourceID      *uuid.UUID      `json:"data_source_id"`
}
