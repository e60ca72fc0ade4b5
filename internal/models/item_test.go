package models

import "testing"

func TestItemStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ItemStatus
		ok       bool
	}{
		{ItemPending, ItemAvailable, true},
		{ItemPending, ItemRejected, true},
		{ItemPending, ItemInSwap, false},
		{ItemPending, ItemSwapped, false},
		{ItemAvailable, ItemInSwap, true},
		{ItemAvailable, ItemSwapped, true},
		{ItemAvailable, ItemPending, false},
		{ItemAvailable, ItemRejected, false},
		{ItemInSwap, ItemSwapped, true},
		{ItemInSwap, ItemAvailable, true},
		{ItemInSwap, ItemPending, false},
		{ItemSwapped, ItemAvailable, false},
		{ItemSwapped, ItemInSwap, false},
		{ItemRejected, ItemAvailable, false},
		{ItemRejected, ItemPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestItemStatusTerminal(t *testing.T) {
	for st, terminal := range map[ItemStatus]bool{
		ItemPending:   false,
		ItemAvailable: false,
		ItemInSwap:    false,
		ItemSwapped:   true,
		ItemRejected:  true,
	} {
		if got := st.Terminal(); got != terminal {
			t.Errorf("%s.Terminal() = %v, want %v", st, got, terminal)
		}
	}
}

func TestItemValidate(t *testing.T) {
	base := Item{Title: "Denim Jacket", PointsValue: 10}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	noTitle := base
	noTitle.Title = "   "
	if err := noTitle.Validate(); err == nil {
		t.Error("blank title accepted")
	}

	for _, pv := range []int64{0, -5, 101} {
		it := base
		it.PointsValue = pv
		if err := it.Validate(); err == nil {
			t.Errorf("points_value %d accepted", pv)
		}
	}
	for _, pv := range []int64{MinPointsValue, MaxPointsValue} {
		it := base
		it.PointsValue = pv
		if err := it.Validate(); err != nil {
			t.Errorf("points_value %d rejected: %v", pv, err)
		}
	}
}

func TestItemTagList(t *testing.T) {
	it := Item{Tags: "vintage, denim ,, summer "}
	got := it.TagList()
	want := []string{"vintage", "denim", "summer"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tag %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if tags := (&Item{}).TagList(); tags != nil {
		t.Errorf("empty tags: got %v, want nil", tags)
	}
}
