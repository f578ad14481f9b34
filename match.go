package main

import (
	"sync"
	"time"
)

// Name shown as the opponent in solo matches. The solo opponent is not a
// real player: it never appears in the registry and keeps no score.
const soloOpponentName = "-"

// Match is the round state machine for one duel. In solo mode player2 is
// nil and the solo flag is set; the stand-in opponent's answer slot is
// forced to Correct every round.
//
// Both sides' sessions submit answers concurrently, so all round state is
// guarded by mu. The reveal delay and the follow-up round start run on the
// submitting session's goroutine, outside the lock.
type Match struct {
	game    *Game
	player1 *Player
	player2 *Player
	solo    bool

	mu        sync.Mutex
	prompt    *Prompt
	answer1   AnswerStatus
	answer2   AnswerStatus
	revealing bool
	ended     bool
}

func newMatch(g *Game, player1, player2 *Player) *Match {
	return &Match{
		game:    g,
		player1: player1,
		player2: player2,
		solo:    player2 == nil,
	}
}

func (m *Match) opponentName(p *Player) string {
	if m.solo {
		return soloOpponentName
	}
	if p == m.player1 {
		return m.player2.Name
	}
	return m.player1.Name
}

func (m *Match) opponent(p *Player) *Player {
	if p == m.player1 {
		return m.player2
	}
	return m.player1
}

func (m *Match) eachPlayer(f func(*Player)) {
	f(m.player1)
	if m.player2 != nil {
		f(m.player2)
	}
}

func (m *Match) broadcast(msg any) {
	m.eachPlayer(func(p *Player) {
		p.enqueue(msg)
	})
}

// resetAnswersLocked clears both pending slots for a new round. The solo
// stand-in never submits, so its slot is immediately forced back to
// Correct; it must never be left Unanswered or the round would stall.
func (m *Match) resetAnswersLocked() {
	m.answer1 = Unanswered
	m.answer2 = Unanswered
	if m.solo {
		m.answer2 = Correct
	}
}

// startRound draws a fresh prompt, resets both answer slots, and sends the
// prompt to both sides. A new round never begins while a previous round's
// answers are still pending; callers only reach here after resetAnswersLocked.
func (m *Match) startRound() {
	prompt := m.game.words.NewPrompt()

	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.prompt = prompt
	m.resetAnswersLocked()
	m.revealing = false
	m.mu.Unlock()

	m.broadcast(&PromptMessage{Type: "prompt", Prompt: prompt})
}

// Submit processes one side's answer: verdict to the submitter only, score
// counters updated, and, once both slots are filled, the shared outcome
// after the reveal delay. Runs on the submitting session's goroutine.
func (m *Match) Submit(p *Player, answer string) {
	m.mu.Lock()
	// Submissions between both sides answering and the outcome going out
	// belong to no round; the stale prompt must not score them.
	if m.ended || m.revealing || m.prompt == nil {
		m.mu.Unlock()
		return
	}

	status := Incorrect
	if answer == m.prompt.Answer {
		status = Correct
	}
	if p == m.player1 {
		m.answer1 = status
	} else {
		m.answer2 = status
	}

	bothAnswered := m.answer1 != Unanswered && m.answer2 != Unanswered
	var verdict1, verdict2 AnswerStatus
	if bothAnswered {
		verdict1, verdict2 = m.answer1, m.answer2
		m.resetAnswersLocked()
		m.revealing = true
	}
	m.mu.Unlock()

	p.recordAnswer(status == Correct)
	p.enqueue(&AnswerStatusMessage{Type: "answerStatus", AnswerStatus: status})

	if !bothAnswered {
		return
	}

	// Give both clients time to show their own verdict before the shared
	// outcome lands.
	time.Sleep(m.game.cfg.revealDelay)

	if (verdict1 == Incorrect || verdict2 == Incorrect) && !m.solo {
		m.finish(verdict1, verdict2)
		return
	}

	m.startRound()
}

// finish ends the match and names the side with the correct verdict as
// winner. When both sides were incorrect the round is a draw and the
// winner name is left empty.
func (m *Match) finish(verdict1, verdict2 AnswerStatus) {
	winner := ""
	switch {
	case verdict1 == Correct && verdict2 == Incorrect:
		winner = m.player1.Name
	case verdict2 == Correct && verdict1 == Incorrect:
		winner = m.player2.Name
	}

	m.end(winner)
}

// Forfeit ends the match because one side disconnected mid-round. The
// remaining side wins; a solo match just ends.
func (m *Match) Forfeit(quitter *Player) {
	winner := ""
	if !m.solo {
		winner = m.opponent(quitter).Name
	}

	m.end(winner)
}

// end broadcasts the match-end event and returns both sides to idle.
// Idempotent: a forfeit racing a regular finish resolves to whichever
// got here first.
func (m *Match) end(winner string) {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.ended = true
	m.mu.Unlock()

	m.broadcast(&MatchEndMessage{Type: "matchEnd", WinnerName: winner})

	m.eachPlayer(func(p *Player) {
		if p.Status() == StatusPlaying {
			p.setStatus(StatusIdle)
		}
		p.clearMatch(m)
	})
}
