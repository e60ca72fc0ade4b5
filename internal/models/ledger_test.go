package models

import "testing"

func TestEntryKindSignOK(t *testing.T) {
	cases := []struct {
		kind   EntryKind
		amount int64
		ok     bool
	}{
		{EntryEarned, 10, true},
		{EntryEarned, 0, true},
		{EntryEarned, -1, false},
		{EntryBonus, 25, true},
		{EntryBonus, -25, false},
		{EntryRedeemed, -10, true},
		{EntryRedeemed, 0, true},
		{EntryRedeemed, 10, false},
		{EntryPenalty, -5, true},
		{EntryPenalty, 5, false},
		{EntryKind("unknown"), 1, false},
		{EntryKind("unknown"), -1, false},
	}
	for _, c := range cases {
		if got := c.kind.SignOK(c.amount); got != c.ok {
			t.Errorf("%s.SignOK(%d) = %v, want %v", c.kind, c.amount, got, c.ok)
		}
	}
}
