package models

import "time"

type NotificationKind string

const (
	NotifySwapRequest    NotificationKind = "swap_request"
	NotifySwapAccepted   NotificationKind = "swap_accepted"
	NotifySwapRejected   NotificationKind = "swap_rejected"
	NotifySwapCompleted  NotificationKind = "swap_completed"
	NotifyItemApproved   NotificationKind = "item_approved"
	NotifyItemRejected   NotificationKind = "item_rejected"
	NotifyPointsEarned   NotificationKind = "points_earned"
	NotifyPointsRedeemed NotificationKind = "points_redeemed"
	NotifyGeneral        NotificationKind = "general"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	ItemID    *string          `json:"item_id,omitempty"`
	SwapID    *string          `json:"swap_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
