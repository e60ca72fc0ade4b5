package models

import "testing"

func TestRedemptionStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to RedemptionStatus
		ok       bool
	}{
		{RedemptionPending, RedemptionApproved, true},
		{RedemptionPending, RedemptionRejected, true},
		{RedemptionPending, RedemptionCompleted, false},
		{RedemptionApproved, RedemptionCompleted, true},
		{RedemptionApproved, RedemptionRejected, false},
		{RedemptionApproved, RedemptionPending, false},
		{RedemptionRejected, RedemptionApproved, false},
		{RedemptionCompleted, RedemptionPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestRedemptionStatusTerminal(t *testing.T) {
	for st, terminal := range map[RedemptionStatus]bool{
		RedemptionPending:   false,
		RedemptionApproved:  false,
		RedemptionRejected:  true,
		RedemptionCompleted: true,
	} {
		if got := st.Terminal(); got != terminal {
			t.Errorf("%s.Terminal() = %v, want %v", st, got, terminal)
		}
	}
}
