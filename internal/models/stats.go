package models

// DashboardStats is the per-user summary shown on the dashboard.
type DashboardStats struct {
	TotalItems          int   `json:"total_items"`
	AvailableItems      int   `json:"available_items"`
	PendingItems        int   `json:"pending_items"`
	PointsBalance       int64 `json:"points_balance"`
	PendingSwapRequests int   `json:"pending_swap_requests"`
	OngoingSwaps        int   `json:"ongoing_swaps"`
	CompletedSwaps      int   `json:"completed_swaps"`
	UnreadNotifications int   `json:"unread_notifications"`
}
