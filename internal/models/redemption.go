package models

import "time"

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionApproved  RedemptionStatus = "approved"
	RedemptionRejected  RedemptionStatus = "rejected"
	RedemptionCompleted RedemptionStatus = "completed"
)

var redemptionTransitions = map[RedemptionStatus][]RedemptionStatus{
	RedemptionPending:  {RedemptionApproved, RedemptionRejected},
	RedemptionApproved: {RedemptionCompleted},
}

func (s RedemptionStatus) CanTransitionTo(to RedemptionStatus) bool {
	for _, t := range redemptionTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func (s RedemptionStatus) Terminal() bool {
	return len(redemptionTransitions[s]) == 0
}

// Redemption is a points-for-item claim. PointsUsed is snapshotted from
// the item's points_value at creation and never changes afterwards,
// even if the item is later repriced.
type Redemption struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	ItemID      string           `json:"item_id"`
	PointsUsed  int64            `json:"points_used"`
	Status      RedemptionStatus `json:"status"`
	Message     string           `json:"message,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}
