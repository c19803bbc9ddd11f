package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// Record is a stored entity that has no catalog identifier yet.
type Record struct {
	ID        string
	Title     string
	Year      *int
	SourceURL string
}

// HasYear reports whether the record carries a usable release year.
func (r Record) HasYear() bool {
	return r.Year != nil && *r.Year > 0
}

// Label renders the record as "<title> (<year>)" for progress output.
func (r Record) Label() string {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "<untitled>"
	}
	if r.HasYear() {
		return fmt.Sprintf("%s (%d)", title, *r.Year)
	}
	return title + " (unknown year)"
}

// Confidence ranks how a candidate was obtained. Higher values are trusted
// without further comparison.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceRelaxedSearch
	ConfidenceExactSearch
	ConfidencePageLinked
	ConfidenceURLExtracted
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceURLExtracted:
		return "url_extracted"
	case ConfidencePageLinked:
		return "page_linked"
	case ConfidenceExactSearch:
		return "exact_search"
	case ConfidenceRelaxedSearch:
		return "relaxed_search"
	default:
		return "none"
	}
}

// Candidate is a tentative identifier produced by one strategy.
type Candidate struct {
	Identifier  int64
	Confidence  Confidence
	SourceTitle string
	SourceYear  int
}

// Status is the terminal state of one record in a run.
type Status string

const (
	StatusUpdated Status = "UPDATED"
	StatusSkipped Status = "SKIPPED"
	StatusFailed  Status = "FAILED"
)

// Outcome is the result of processing one record. Build it with Updated,
// Skipped or Failed so each status carries its required payload.
type Outcome struct {
	RecordID   string
	Status     Status
	Identifier int64
	Confidence Confidence
	Err        string
}

// Updated records a successful persist of candidate.
func Updated(recordID string, candidate Candidate) Outcome {
	return Outcome{
		RecordID:   recordID,
		Status:     StatusUpdated,
		Identifier: candidate.Identifier,
		Confidence: candidate.Confidence,
	}
}

// Skipped records that no strategy produced a candidate.
func Skipped(recordID string) Outcome {
	return Outcome{RecordID: recordID, Status: StatusSkipped}
}

// Failed records a persist failure for candidate. A nil err is replaced by a
// generic message so failed outcomes always explain themselves.
func Failed(recordID string, candidate Candidate, err error) Outcome {
	if err == nil {
		err = errors.New("persist failed")
	}
	return Outcome{
		RecordID:   recordID,
		Status:     StatusFailed,
		Identifier: candidate.Identifier,
		Confidence: candidate.Confidence,
		Err:        err.Error(),
	}
}

// String renders the outcome for progress lines.
func (o Outcome) String() string {
	switch o.Status {
	case StatusUpdated:
		return fmt.Sprintf("updated %d (%s)", o.Identifier, o.Confidence)
	case StatusFailed:
		return fmt.Sprintf("failed %d: %s", o.Identifier, o.Err)
	default:
		return "skipped, no match"
	}
}
