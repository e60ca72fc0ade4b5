package models

import "testing"

func TestSwapStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to SwapStatus
		ok       bool
	}{
		{SwapPending, SwapAccepted, true},
		{SwapPending, SwapRejected, true},
		{SwapPending, SwapCancelled, true},
		{SwapPending, SwapCompleted, false},
		{SwapAccepted, SwapCompleted, true},
		{SwapAccepted, SwapCancelled, true},
		{SwapAccepted, SwapRejected, false},
		{SwapAccepted, SwapPending, false},
		{SwapRejected, SwapAccepted, false},
		{SwapCompleted, SwapCancelled, false},
		{SwapCancelled, SwapPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestSwapStatusTerminal(t *testing.T) {
	for st, terminal := range map[SwapStatus]bool{
		SwapPending:   false,
		SwapAccepted:  false,
		SwapRejected:  true,
		SwapCompleted: true,
		SwapCancelled: true,
	} {
		if got := st.Terminal(); got != terminal {
			t.Errorf("%s.Terminal() = %v, want %v", st, got, terminal)
		}
	}
}

func TestSwapRequestPartyAndTouches(t *testing.T) {
	sr := SwapRequest{
		RequesterID:     "u1",
		OwnerID:         "u2",
		RequesterItemID: "i1",
		RequestedItemID: "i2",
	}
	if !sr.Party("u1") || !sr.Party("u2") {
		t.Error("participants not recognized")
	}
	if sr.Party("u3") {
		t.Error("outsider recognized as party")
	}
	if !sr.Touches("i1") || !sr.Touches("i2") {
		t.Error("referenced items not recognized")
	}
	if sr.Touches("i3") {
		t.Error("unrelated item recognized")
	}
}
