package main

import (
	"slices"
	"sync"
)

// Registry is the process-wide collection of known players, in insertion
// order. It is the single cross-session coordination point: every mutation
// of the player list, and every matchmaking claim, happens under its lock.
type Registry struct {
	mu      sync.RWMutex
	players []*Player
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Upsert registers a player. If a player with the same name already exists,
// its score counters are carried onto the new instance, its session is told
// to exit, and it is replaced. This is the only way a previous connection is
// forcibly terminated, which is what makes "log back in under the same name"
// work without double-counting score.
func (r *Registry) Upsert(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.players {
		if existing.Name == p.Name {
			p.adoptScore(existing)
			existing.signalDone()
			r.players = slices.Delete(r.players, i, i+1)
			break
		}
	}

	r.players = append(r.players, p)
}

// findWaitingOpponent returns the first waiting player, in registry order,
// that is not the requester and not in the requester's played-with set.
// Production pairing goes through ClaimWaitingOpponent, which applies the
// same predicate while also marking both sides playing; this read-only view
// exists for the search-semantics tests.
func (r *Registry) findWaitingOpponent(p *Player) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findWaitingLocked(p, false)
}

// FindAnyWaitingOpponent is findWaitingOpponent without the played-with
// filter, used by the matchmaker's quick check and the post-timeout fallback.
func (r *Registry) FindAnyWaitingOpponent(p *Player) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findWaitingLocked(p, true)
}

func (r *Registry) findWaitingLocked(p *Player, ignorePlayedWith bool) *Player {
	for _, other := range r.players {
		if other == p || other.Status() != StatusWaiting {
			continue
		}
		if !ignorePlayedWith && p.hasPlayedWith(other.Name) {
			continue
		}
		return other
	}
	return nil
}

// ClaimWaitingOpponent finds an opponent like the Find variants do but also
// marks both sides as playing in the same critical section, so two sessions
// racing on the same waiting player can never both claim them. Returns nil
// if no opponent is eligible or if the requester is no longer waiting
// (somebody else's request may have claimed them during a timeout wait).
func (r *Registry) ClaimWaitingOpponent(p *Player, ignorePlayedWith bool) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Status() != StatusWaiting {
		return nil
	}

	opponent := r.findWaitingLocked(p, ignorePlayedWith)
	if opponent == nil {
		return nil
	}

	p.setStatus(StatusPlaying)
	opponent.setStatus(StatusPlaying)

	return opponent
}

// ClaimSolo moves a waiting player into a solo match, unless a concurrent
// claim from another session's matchmaking already paired them into a duel.
// Kept under the registry lock for the same reason as the duo claims: every
// Waiting-to-Playing transition must be serialized here.
func (r *Registry) ClaimSolo(p *Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Status() != StatusWaiting {
		return false
	}

	p.setStatus(StatusPlaying)
	return true
}

// MarkWaiting moves a player into the waiting pool, unless a concurrent
// claim from another session's matchmaking already moved them into a match.
// Serializing this with ClaimWaitingOpponent keeps a playing player from
// being clobbered back to waiting by their own queued start request.
func (r *Registry) MarkWaiting(p *Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Status() == StatusPlaying || p.currentMatch() != nil {
		return false
	}

	p.setStatus(StatusWaiting)
	return true
}

// Snapshot returns every known player's summary in registry order,
// including disconnected ones, for leaderboard display.
func (r *Registry) Snapshot() []PlayerSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]PlayerSummary, 0, len(r.players))
	for _, p := range r.players {
		summaries = append(summaries, p.Summary())
	}

	return summaries
}
