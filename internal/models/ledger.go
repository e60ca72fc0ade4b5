package models

import "time"

type EntryKind string

const (
	EntryEarned   EntryKind = "earned"
	EntryRedeemed EntryKind = "redeemed"
	EntryBonus    EntryKind = "bonus"
	EntryPenalty  EntryKind = "penalty"
)

// SignOK enforces the sign convention per kind: earned/bonus entries
// never take points away, redeemed/penalty entries never add them.
func (k EntryKind) SignOK(amount int64) bool {
	switch k {
	case EntryEarned, EntryBonus:
		return amount >= 0
	case EntryRedeemed, EntryPenalty:
		return amount <= 0
	}
	return false
}

// LedgerEntry is an immutable record of a balance-affecting event.
// Entries are only ever appended, never updated or deleted.
type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      EntryKind `json:"kind"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	ItemID    *string   `json:"item_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Balance is the materialized sum of a user's ledger entries. It is
// updated only together with an entry insertion, never directly.
type Balance struct {
	UserID        string    `json:"user_id"`
	Amount        int64     `json:"amount"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}
