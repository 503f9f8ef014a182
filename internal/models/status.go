package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the semantic value of a status history entry.
type Status int

const (
	StatusUnknown Status = iota
	StatusDraft
	StatusPending
	StatusAuthorized
	StatusPaid
)

// String returns the canonical lower-case spelling stored in documents.
func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPending:
		return "pending"
	case StatusAuthorized:
		return "authorized"
	case StatusPaid:
		return "paid"
	default:
		return "unknown"
	}
}

// ParseStatus maps a stored status string to a Status, ignoring case.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(raw) {
	case "draft":
		return StatusDraft, true
	case "pending":
		return StatusPending, true
	case "authorized":
		return StatusAuthorized, true
	case "paid":
		return StatusPaid, true
	default:
		return StatusUnknown, false
	}
}

// StatusEvent is one entry of a claim's status ledger.
type StatusEvent struct {
	Status    string              `bson:"status" json:"status"`
	Amount    float64             `bson:"amount" json:"amount"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	Color     string              `bson:"color,omitempty" json:"color,omitempty"` // display tag: "teal", "orange", "green"
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
}

// Is reports whether the event's raw status parses to s.
func (e StatusEvent) Is(s Status) bool {
	parsed, ok := ParseStatus(e.Status)
	return ok && parsed == s
}

// StatusHistory is kept in insertion order. It is not sorted by timestamp.
type StatusHistory []StatusEvent

// IndexOf returns the position of the first entry in storage order whose status
// is s, or -1.
func (h StatusHistory) IndexOf(s Status) int {
	for i, ev := range h {
		if ev.Is(s) {
			return i
		}
	}
	return -1
}

// Count returns how many entries carry status s.
func (h StatusHistory) Count(s Status) int {
	n := 0
	for _, ev := range h {
		if ev.Is(s) {
			n++
		}
	}
	return n
}
