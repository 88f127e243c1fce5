// Package domain contains core concepts of the broadcast system.
// This file defines the Message record and its invariants.
// Messages are immutable once appended to the ledger.
package domain

import "time"

// Message represents one immutable ledger entry.
// IDs are assigned by the ledger at append time, strictly increasing,
// and never reused except after an explicit reset.
type Message struct {
	ID        int64
	Author    string
	Body      string
	CreatedAt time.Time
}
