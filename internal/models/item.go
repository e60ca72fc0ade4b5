package models

import (
	"errors"
	"strings"
	"time"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemAvailable ItemStatus = "available"
	ItemInSwap    ItemStatus = "in_swap"
	ItemSwapped   ItemStatus = "swapped"
	ItemRejected  ItemStatus = "rejected"
)

// itemTransitions is the closed set of legal status moves. Anything not
// listed here is rejected, regardless of who asks.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemPending:   {ItemAvailable, ItemRejected},
	ItemAvailable: {ItemInSwap, ItemSwapped},
	ItemInSwap:    {ItemSwapped, ItemAvailable},
}

func (s ItemStatus) CanTransitionTo(to ItemStatus) bool {
	for _, t := range itemTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func (s ItemStatus) Terminal() bool {
	return len(itemTransitions[s]) == 0
}

const (
	MinPointsValue = 1
	MaxPointsValue = 100
)

type Item struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Size           string     `json:"size"`
	Condition      string     `json:"condition"`
	Tags           string     `json:"tags"`
	Status         ItemStatus `json:"status"`
	PointsValue    int64      `json:"points_value"`
	SwapEligible   bool       `json:"swap_eligible"`
	PointsEligible bool       `json:"points_eligible"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	ApprovedBy     *string    `json:"approved_by,omitempty"`
}

func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return errors.New("title required")
	}
	if i.PointsValue < MinPointsValue || i.PointsValue > MaxPointsValue {
		return errors.New("points_value out of range")
	}
	return nil
}

// TagList splits the comma-separated tags field.
func (i *Item) TagList() []string {
	if i.Tags == "" {
		return nil
	}
	parts := strings.Split(i.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
