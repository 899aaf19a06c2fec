// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Status is the terminal outcome of processing one topic.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrInvalidStatus is returned when a status outside the closed set is offered.
var ErrInvalidStatus = errors.New("invalid status")

// ParseStatus converts s into a Status, rejecting anything but success or failed.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}

// ResultRecord is the persisted outcome for one topic code.
type ResultRecord struct {
	// Model identifies the generator that produced (or failed to produce) the explanation.
	Model string `json:"model" yaml:"model"`

	// Status is the terminal outcome.
	Status Status `json:"status" yaml:"status"`

	// LastUpdated is the time of the latest upsert.
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`
}

// Progress is the set-of-processed-codes progress file.
type Progress struct {
	ProcessedTopics []string `json:"processed_topics" yaml:"processed_topics"`
	LastIndex       int      `json:"last_index" yaml:"last_index"`
}

// Contains reports whether code has been marked processed.
func (p *Progress) Contains(code string) bool {
	return slices.Contains(p.ProcessedTopics, code)
}

// Mark adds code to the processed set. Marking an already processed
// code is a no-op. LastIndex tracks the number of processed codes.
func (p *Progress) Mark(code string) {
	if !p.Contains(code) {
		p.ProcessedTopics = append(p.ProcessedTopics, code)
	}
	p.LastIndex = len(p.ProcessedTopics)
}

// LogEntry is one line of the append-only processing log.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Topic      string    `json:"topic" yaml:"topic"`
	Model      string    `json:"model" yaml:"model"`
	TokenCount int64     `json:"token_count" yaml:"token_count"`
	Status     Status    `json:"status" yaml:"status"`
}
