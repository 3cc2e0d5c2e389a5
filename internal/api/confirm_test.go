package api

import (
	"testing"
	"time"
)

func TestConfirmTokenIsOneShot(t *testing.T) {
	s := newConfirmStore(time.Minute)
	token := s.issue("blog", "b1")

	if !s.redeem(token, "blog", "b1") {
		t.Fatal("first redeem must succeed")
	}
	if s.redeem(token, "blog", "b1") {
		t.Error("second redeem must fail")
	}
}

func TestConfirmTokenBoundToTarget(t *testing.T) {
	s := newConfirmStore(time.Minute)
	token := s.issue("blog", "b1")

	if s.redeem(token, "blog", "b2") {
		t.Error("token must not redeem against a different id")
	}
	if s.redeem(token, "skill", "b1") {
		t.Error("token must not redeem against a different resource")
	}
	// A failed match does not burn the token.
	if !s.redeem(token, "blog", "b1") {
		t.Error("matching redeem must still succeed after mismatches")
	}
}

func TestConfirmExpiredTokenRejected(t *testing.T) {
	s := newConfirmStore(10 * time.Millisecond)
	token := s.issue("blog", "b1")

	time.Sleep(25 * time.Millisecond)
	if s.redeem(token, "blog", "b1") {
		t.Error("expired token must not redeem")
	}
}

func TestConfirmIssueSweepsExpired(t *testing.T) {
	s := newConfirmStore(10 * time.Millisecond)
	for i := 0; i < 5; i++ {
		s.issue("blog", "abandoned")
	}
	time.Sleep(25 * time.Millisecond)

	s.issue("blog", "b1")

	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()
	if n != 1 {
		t.Errorf("entries = %d after sweep, want 1", n)
	}
}
