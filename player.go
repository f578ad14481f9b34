package main

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type PlayerStatus int

const (
	StatusIdle PlayerStatus = iota
	StatusWaiting
	StatusPlaying
	StatusDisconnected
)

func (s PlayerStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusWaiting:
		return "waiting"
	case StatusPlaying:
		return "playing"
	case StatusDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Player is one connected (or previously connected) named participant.
// Identity is the display name; connID only disambiguates sessions in logs.
//
// Mutable fields are guarded by mu. The registry holds its own lock while
// calling these accessors; accessors never reach back into the registry.
type Player struct {
	Name   string
	connID string

	conn *websocket.Conn
	send chan any

	// Closed exactly once when this session is finished, either by its own
	// disconnect or by a reconnection under the same name superseding it.
	// The websocket handler blocks on this before releasing the connection.
	done     chan struct{}
	doneOnce sync.Once

	mu         sync.Mutex
	status     PlayerStatus
	correct    int
	incorrect  int
	playedWith map[string]struct{}
	match      *Match
}

func newPlayer(name string, conn *websocket.Conn) *Player {
	return &Player{
		Name:       name,
		connID:     uuid.NewString(),
		conn:       conn,
		send:       make(chan any, 8),
		done:       make(chan struct{}),
		playedWith: make(map[string]struct{}),
	}
}

// enqueue hands a packet to the write pump without blocking. Game packets
// cannot be dropped without stalling the duel, so a full buffer means the
// consumer stopped draining and the connection is given up on; the session
// loop then tears the player down like any other disconnect.
func (p *Player) enqueue(msg any) {
	select {
	case p.send <- msg:
	default:
		if p.conn != nil {
			_ = p.conn.Close()
		}
	}
}

// enqueueBestEffort drops the packet when the buffer is full, for periodic
// traffic where the next tick supersedes this one anyway.
func (p *Player) enqueueBestEffort(msg any) {
	select {
	case p.send <- msg:
	default:
	}
}

// writePump drains the send channel onto the websocket until the session
// ends or a write fails.
func (p *Player) writePump() {
	defer p.conn.Close()

	for {
		select {
		case msg := <-p.send:
			if err := p.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-p.done:
			return
		}
	}
}

func (p *Player) signalDone() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}

func (p *Player) Status() PlayerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Player) setStatus(s PlayerStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

func (p *Player) currentMatch() *Match {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.match
}

func (p *Player) setMatch(m *Match) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.match = m
}

// clearMatch drops the back-reference, but only if it still points at m.
func (p *Player) clearMatch(m *Match) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.match == m {
		p.match = nil
	}
}

func (p *Player) recordAnswer(correct bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if correct {
		p.correct++
	} else {
		p.incorrect++
	}
}

// adoptScore carries a previous session's counters onto this player.
func (p *Player) adoptScore(from *Player) {
	from.mu.Lock()
	correct, incorrect := from.correct, from.incorrect
	from.mu.Unlock()

	p.mu.Lock()
	p.correct, p.incorrect = correct, incorrect
	p.mu.Unlock()
}

func (p *Player) addPlayedWith(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playedWith[name] = struct{}{}
}

func (p *Player) hasPlayedWith(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.playedWith[name]
	return ok
}

func (p *Player) Summary() PlayerSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlayerSummary{
		Name:             p.Name,
		CorrectAnswers:   p.correct,
		IncorrectAnswers: p.incorrect,
		TotalAnswers:     p.correct + p.incorrect,
	}
}
