// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the topic-explainer pipeline.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// TopicFormat selects the record shape of the topic source file.
type TopicFormat string

const (
	// TopicFormatTriple is one "code;detailed_query;image_query" record per line.
	TopicFormatTriple TopicFormat = "triple"

	// TopicFormatSingle is one free-text topic per line, used as its own
	// query, image query, and (sanitized) document key.
	TopicFormatSingle TopicFormat = "single"
)

// ParseTopicFormat validates a format name from configuration.
func ParseTopicFormat(s string) (TopicFormat, error) {
	switch f := TopicFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case TopicFormatTriple, TopicFormatSingle:
		return f, nil
	case "":
		return TopicFormatTriple, nil
	default:
		return "", fmt.Errorf("unknown topic format %q (want triple or single)", s)
	}
}

// ErrEmptyTopicField is returned by NewTopic when a field is blank after trimming.
var ErrEmptyTopicField = errors.New("topic field is empty")

// Topic is one unit of work read from the topic source file.
type Topic struct {
	// Code is the short stable identifier and the document file key.
	Code string `json:"code" yaml:"code"`

	// DetailedQuery is the prompt text sent to the explanation generator.
	DetailedQuery string `json:"detailed_query" yaml:"detailed_query"`

	// ImageQuery is the search string for the image fetcher.
	ImageQuery string `json:"image_query" yaml:"image_query"`
}

// NewTopic trims every field and rejects the record if any field is empty.
func NewTopic(code, detailedQuery, imageQuery string) (Topic, error) {
	t := Topic{
		Code:          strings.TrimSpace(code),
		DetailedQuery: strings.TrimSpace(detailedQuery),
		ImageQuery:    strings.TrimSpace(imageQuery),
	}
	switch {
	case t.Code == "":
		return Topic{}, fmt.Errorf("code: %w", ErrEmptyTopicField)
	case t.DetailedQuery == "":
		return Topic{}, fmt.Errorf("detailed_query: %w", ErrEmptyTopicField)
	case t.ImageQuery == "":
		return Topic{}, fmt.Errorf("image_query: %w", ErrEmptyTopicField)
	}
	return t, nil
}
