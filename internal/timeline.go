package internal

import "time"

// Revision identifies one historical version of a stored snapshot file
type Revision struct {
	ID   string
	Time time.Time
}

// ChangeEvent is one entry of a reconstructed timeline
type ChangeEvent struct {
	Timestamp  int64       `json:"_timestamp" yaml:"timestamp"`
	RevisionID string      `json:"_hexsha" yaml:"revision"`
	Data       interface{} `json:"data" yaml:"data"`

	// Raw holds the revision's file content as stored
	Raw []byte `json:"-" yaml:"-"`
	// Changed lists top-level keys that differ from the previous event
	Changed []string `json:"-" yaml:"changed,omitempty"`
}

// Timeline is the chronological history of a single snapshot file
type Timeline struct {
	AccountID string        `json:"account" yaml:"account"`
	Entity    string        `json:"entity" yaml:"entity"`
	Source    string        `json:"source" yaml:"source"`
	Events    []ChangeEvent `json:"events" yaml:"events"`
}
