package ledger

import (
	"testing"
	"time"
)

func TestApplyMonotonic(t *testing.T) {
	l := New(500, "u1", "alice", 3)

	if ok := l.Apply(600, "u2", "bob", 4); !ok {
		t.Fatal("higher bid should apply")
	}
	if l.Amount() != 600 || l.BidderLabel() != "bob" {
		t.Fatalf("got amount=%d bidder=%s, want 600/bob", l.Amount(), l.BidderLabel())
	}

	// Out-of-order lower bid must be ignored entirely.
	if ok := l.Apply(580, "u3", "carol", 5); ok {
		t.Fatal("lower bid must not apply")
	}
	if l.Amount() != 600 || l.BidderLabel() != "bob" {
		t.Fatalf("stale bid mutated ledger: amount=%d bidder=%s", l.Amount(), l.BidderLabel())
	}

	// Equal amount is a duplicate, not a new bid.
	if ok := l.Apply(600, "u2", "bob", 6); ok {
		t.Fatal("equal bid must not apply")
	}
}

func TestDisplayedAmountIsMaxSeen(t *testing.T) {
	l := New(0, "", "", 0)
	amounts := []int64{100, 250, 250, 240, 900, 120, 901}
	var max int64
	for _, a := range amounts {
		l.Apply(a, "u", "u", 0)
		if a > max {
			max = a
		}
	}
	if l.Amount() != max {
		t.Fatalf("amount = %d, want max seen %d", l.Amount(), max)
	}
}

func TestApplyCount(t *testing.T) {
	l := New(500, "u1", "alice", 3)

	// Server count wins when it is ahead of ours.
	l.Apply(600, "u2", "bob", 10)
	if l.Count() != 10 {
		t.Fatalf("count = %d, want 10", l.Count())
	}

	// Otherwise the count is advanced locally.
	l.Apply(700, "u1", "alice", 0)
	if l.Count() != 11 {
		t.Fatalf("count = %d, want 11", l.Count())
	}
}

func TestBumpCount(t *testing.T) {
	l := New(500, "u1", "alice", 3)
	if ok := l.BumpCount(2); ok {
		t.Fatal("lower count must not bump")
	}
	if ok := l.BumpCount(7); !ok || l.Count() != 7 {
		t.Fatalf("count = %d, want 7", l.Count())
	}
}

func TestSelfEcho(t *testing.T) {
	l := New(500, "u1", "alice", 3)
	now := time.Now()
	window := 10 * time.Second

	l.MarkSelf(600, now)

	if l.IsSelfEcho(650, now, window) {
		t.Fatal("different amount must not match the self mark")
	}
	if !l.IsSelfEcho(600, now.Add(2*time.Second), window) {
		t.Fatal("echo within window should match")
	}
	// The mark is consumed; a second identical echo is not a confirmation.
	if l.IsSelfEcho(600, now.Add(3*time.Second), window) {
		t.Fatal("self mark must be consumed by first match")
	}

	l.MarkSelf(700, now)
	if l.IsSelfEcho(700, now.Add(window+time.Second), window) {
		t.Fatal("echo outside window must not match")
	}
}

func TestMinNextBid(t *testing.T) {
	l := New(500, "u1", "alice", 3)
	if got := l.MinNextBid(50); got != 550 {
		t.Fatalf("MinNextBid = %d, want 550", got)
	}
	l.Apply(800, "u2", "bob", 4)
	if got := l.MinNextBid(50); got != 850 {
		t.Fatalf("MinNextBid after update = %d, want 850", got)
	}
}
