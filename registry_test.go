package main

import (
	"testing"
)

func TestUpsertReplacesSameName(t *testing.T) {
	r := NewRegistry()

	old := newPlayer("alice", nil)
	old.recordAnswer(true)
	old.recordAnswer(true)
	old.recordAnswer(false)
	r.Upsert(old)

	replacement := newPlayer("alice", nil)
	r.Upsert(replacement)

	select {
	case <-old.done:
	default:
		t.Error("expected superseded session to be signaled")
	}

	snapshot := r.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 registry entry, got %d", len(snapshot))
	}

	got := replacement.Summary()
	if got.CorrectAnswers != 2 || got.IncorrectAnswers != 1 || got.TotalAnswers != 3 {
		t.Errorf("expected counters carried over, got %+v", got)
	}
}

func TestUpsertDistinctNames(t *testing.T) {
	r := NewRegistry()
	r.Upsert(newPlayer("alice", nil))
	r.Upsert(newPlayer("bob", nil))

	snapshot := r.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 registry entries, got %d", len(snapshot))
	}
	if snapshot[0].Name != "alice" || snapshot[1].Name != "bob" {
		t.Errorf("expected insertion order preserved, got %+v", snapshot)
	}
}

func TestFindWaitingOpponent(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(r *Registry, requester *Player)
		ignoreSeen bool
		want       string
	}{
		{
			name: "first waiting player in registry order",
			setup: func(r *Registry, requester *Player) {
				idle := newPlayer("idle", nil)
				r.Upsert(idle)
				waiting := newPlayer("waiting", nil)
				waiting.setStatus(StatusWaiting)
				r.Upsert(waiting)
				other := newPlayer("other", nil)
				other.setStatus(StatusWaiting)
				r.Upsert(other)
			},
			want: "waiting",
		},
		{
			name: "never returns the requester",
			setup: func(r *Registry, requester *Player) {
				requester.setStatus(StatusWaiting)
			},
			want: "",
		},
		{
			name: "skips played-with opponents",
			setup: func(r *Registry, requester *Player) {
				seen := newPlayer("seen", nil)
				seen.setStatus(StatusWaiting)
				r.Upsert(seen)
				requester.addPlayedWith("seen")
				fresh := newPlayer("fresh", nil)
				fresh.setStatus(StatusWaiting)
				r.Upsert(fresh)
			},
			want: "fresh",
		},
		{
			name: "unfiltered search ignores played-with",
			setup: func(r *Registry, requester *Player) {
				seen := newPlayer("seen", nil)
				seen.setStatus(StatusWaiting)
				r.Upsert(seen)
				requester.addPlayedWith("seen")
			},
			ignoreSeen: true,
			want:       "seen",
		},
		{
			name: "ignores disconnected players",
			setup: func(r *Registry, requester *Player) {
				gone := newPlayer("gone", nil)
				gone.setStatus(StatusDisconnected)
				r.Upsert(gone)
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			requester := newPlayer("requester", nil)
			r.Upsert(requester)
			tt.setup(r, requester)

			var got *Player
			if tt.ignoreSeen {
				got = r.FindAnyWaitingOpponent(requester)
			} else {
				got = r.findWaitingOpponent(requester)
			}

			switch {
			case tt.want == "" && got != nil:
				t.Errorf("expected no opponent, got %q", got.Name)
			case tt.want != "" && got == nil:
				t.Errorf("expected opponent %q, got none", tt.want)
			case tt.want != "" && got.Name != tt.want:
				t.Errorf("expected opponent %q, got %q", tt.want, got.Name)
			}
		})
	}
}

func TestClaimWaitingOpponent(t *testing.T) {
	r := NewRegistry()

	requester := newPlayer("requester", nil)
	requester.setStatus(StatusWaiting)
	r.Upsert(requester)

	opponent := newPlayer("opponent", nil)
	opponent.setStatus(StatusWaiting)
	r.Upsert(opponent)

	got := r.ClaimWaitingOpponent(requester, false)
	if got != opponent {
		t.Fatal("expected the waiting opponent to be claimed")
	}
	if requester.Status() != StatusPlaying || opponent.Status() != StatusPlaying {
		t.Error("expected both sides marked playing in the claim")
	}

	// The opponent is taken now, so a second requester comes up empty.
	second := newPlayer("second", nil)
	second.setStatus(StatusWaiting)
	r.Upsert(second)
	if got := r.ClaimWaitingOpponent(requester, false); got != nil {
		t.Errorf("expected no claim for a non-waiting requester, got %q", got.Name)
	}
}

func TestMarkWaiting(t *testing.T) {
	r := NewRegistry()

	p := newPlayer("alice", nil)
	r.Upsert(p)

	if !r.MarkWaiting(p) {
		t.Fatal("expected idle player to become waiting")
	}
	if p.Status() != StatusWaiting {
		t.Errorf("expected waiting status, got %s", p.Status())
	}

	// A player already claimed into a match must stay playing.
	p.setStatus(StatusPlaying)
	if r.MarkWaiting(p) {
		t.Error("expected playing player to be left alone")
	}
	if p.Status() != StatusPlaying {
		t.Errorf("expected playing status, got %s", p.Status())
	}
}

func TestSnapshotIncludesDisconnected(t *testing.T) {
	r := NewRegistry()

	gone := newPlayer("gone", nil)
	gone.recordAnswer(true)
	gone.setStatus(StatusDisconnected)
	r.Upsert(gone)

	snapshot := r.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected disconnected player in snapshot, got %d entries", len(snapshot))
	}
	if snapshot[0].CorrectAnswers != 1 {
		t.Errorf("expected score in snapshot, got %+v", snapshot[0])
	}
}
