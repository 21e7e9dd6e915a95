package ratelimit

import "testing"

func TestBudgetCap(t *testing.T) {
	t.Parallel()

	b := NewBudget(2)
	if !b.Allow() || !b.Allow() {
		t.Fatal("first two requests should be allowed")
	}
	if b.Allow() {
		t.Error("third request should be denied")
	}

	used, max := b.Stats()
	if used != 2 || max != 2 {
		t.Errorf("Stats = (%d, %d), want (2, 2)", used, max)
	}
}

func TestBudgetUnlimited(t *testing.T) {
	t.Parallel()

	b := NewBudget(0)
	for i := 0; i < 1000; i++ {
		if !b.Allow() {
			t.Fatalf("unlimited budget denied request %d", i)
		}
	}
}
