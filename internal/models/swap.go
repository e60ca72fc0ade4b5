package models

import "time"

type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapRejected  SwapStatus = "rejected"
	SwapCompleted SwapStatus = "completed"
	SwapCancelled SwapStatus = "cancelled"
)

var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapPending:  {SwapAccepted, SwapRejected, SwapCancelled},
	SwapAccepted: {SwapCompleted, SwapCancelled},
}

func (s SwapStatus) CanTransitionTo(to SwapStatus) bool {
	for _, t := range swapTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func (s SwapStatus) Terminal() bool {
	return len(swapTransitions[s]) == 0
}

// SwapRequest is an offer of requester_item for requested_item.
// Requester owns requester_item, owner owns requested_item. At most one
// pending request may exist per (requester_item, requested_item) pair.
type SwapRequest struct {
	ID              string     `json:"id"`
	RequesterID     string     `json:"requester_id"`
	OwnerID         string     `json:"owner_id"`
	RequesterItemID string     `json:"requester_item_id"`
	RequestedItemID string     `json:"requested_item_id"`
	Status          SwapStatus `json:"status"`
	Message         string     `json:"message,omitempty"`
	ResponseMessage string     `json:"response_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Party reports whether userID is one of the two sides of the swap.
func (sr *SwapRequest) Party(userID string) bool {
	return userID == sr.RequesterID || userID == sr.OwnerID
}

// Touches reports whether the swap references the given item on either side.
func (sr *SwapRequest) Touches(itemID string) bool {
	return itemID == sr.RequesterItemID || itemID == sr.RequestedItemID
}
