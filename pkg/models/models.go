// Package models defines data structures shared across the application.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoBugs is returned by Decode when a payload has no "bugs" array.
var ErrNoBugs = errors.New("payload has no bugs array")

// Bug represents a single bug-tracker issue as returned by the Bugzilla REST API.
// Records coming from other trackers are normalized into the same shape.
type Bug struct {
	// ID is the tracker's identifier for the bug (e.g., 1234567)
	ID int `json:"id"`

	// Summary is the one-line title of the bug
	Summary string `json:"summary"`

	// Status is the workflow state (e.g., "NEW", "ASSIGNED", "RESOLVED")
	Status string `json:"status"`

	// Resolution is empty while the bug is open
	Resolution string `json:"resolution"`

	// IsOpen reports whether the bug is still unresolved
	IsOpen bool `json:"is_open"`

	// DupeOf is the bug this one duplicates, if any
	DupeOf *int `json:"dupe_of"`

	Keywords   []string `json:"keywords"`
	Whiteboard string   `json:"whiteboard"`
	Product    string   `json:"product"`
	Component  string   `json:"component"`

	// Creator is the login or email of the reporter
	Creator       string         `json:"creator"`
	CreatorDetail *CreatorDetail `json:"creator_detail,omitempty"`

	// CreationTime is the timestamp when the bug was filed
	CreationTime time.Time `json:"creation_time"`

	// LastChangeTime is the timestamp of the most recent change
	LastChangeTime time.Time `json:"last_change_time"`
}

// CreatorDetail holds the expanded identity of a bug's reporter.
type CreatorDetail struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Email    string `json:"email,omitempty"`
	Nick     string `json:"nick,omitempty"`
}

// Payload is the JSON document stored in the cache and returned by the remote source.
type Payload struct {
	Bugs []Bug `json:"bugs"`
}

// OpenCount returns the number of bugs with IsOpen set.
func OpenCount(bugs []Bug) int {
	n := 0
	for _, b := range bugs {
		if b.IsOpen {
			n++
		}
	}
	return n
}

// Decode parses a raw payload. A document without a "bugs" key is rejected,
// an explicit empty array is not. Records are decoded one at a time: a field
// with the wrong type is left at its zero value and the record is kept.
func Decode(data []byte) (Payload, error) {
	var raw struct {
		Bugs json.RawMessage `json:"bugs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Payload{}, fmt.Errorf("failed to parse payload: %w", err)
	}
	if len(raw.Bugs) == 0 || bytes.Equal(raw.Bugs, []byte("null")) {
		return Payload{}, ErrNoBugs
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw.Bugs, &records); err != nil {
		return Payload{}, fmt.Errorf("failed to parse bugs: %w", err)
	}

	p := Payload{Bugs: make([]Bug, 0, len(records))}
	for _, record := range records {
		bug, ok := decodeBug(record)
		if !ok {
			continue
		}
		p.Bugs = append(p.Bugs, bug)
	}
	return p, nil
}

// decodeBug decodes one record, falling back to field-by-field decoding when
// any field is malformed. It reports false only when the record is not an object.
func decodeBug(record json.RawMessage) (Bug, bool) {
	var bug Bug
	if err := json.Unmarshal(record, &bug); err == nil {
		return bug, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(record, &fields); err != nil {
		return Bug{}, false
	}

	bug = Bug{}
	decodeField(fields, "id", &bug.ID)
	decodeField(fields, "summary", &bug.Summary)
	decodeField(fields, "status", &bug.Status)
	decodeField(fields, "resolution", &bug.Resolution)
	decodeField(fields, "is_open", &bug.IsOpen)
	decodeField(fields, "dupe_of", &bug.DupeOf)
	decodeField(fields, "keywords", &bug.Keywords)
	decodeField(fields, "whiteboard", &bug.Whiteboard)
	decodeField(fields, "product", &bug.Product)
	decodeField(fields, "component", &bug.Component)
	decodeField(fields, "creator", &bug.Creator)
	decodeField(fields, "creator_detail", &bug.CreatorDetail)
	decodeField(fields, "creation_time", &bug.CreationTime)
	decodeField(fields, "last_change_time", &bug.LastChangeTime)
	return bug, true
}

// decodeField sets dst from fields[key] only when the value decodes cleanly.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	value, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(value, &v); err == nil {
		*dst = v
	}
}

// Encode serializes a payload into the document format Decode accepts.
func Encode(p Payload) ([]byte, error) {
	if p.Bugs == nil {
		p.Bugs = []Bug{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return data, nil
}
