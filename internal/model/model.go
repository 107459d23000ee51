// Package model holds the types shared by the store, server, render, and
// CLI layers: recorded search runs and their ranked results.
package model

import "time"

// RankedResult is one ranked grouping from a search run, flattened to
// plain strings for persistence and display.
type RankedResult struct {
	Rank   int        `json:"rank"`
	Groups [][]string `json:"groups"`
	Grade  string     `json:"grade"`
}

// SearchRun records one graded search execution.
type SearchRun struct {
	ID        string         `json:"id"`
	Scenario  string         `json:"scenario"`
	Policy    string         `json:"policy"`
	Results   []RankedResult `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
}
