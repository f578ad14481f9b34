package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Game wires the registry and the word bank to websocket sessions. One
// session loop goroutine and one leaderboard goroutine run per connection.
type Game struct {
	cfg      *Config
	registry *Registry
	words    *WordBank
}

func NewGame(cfg *Config, registry *Registry, words *WordBank) *Game {
	return &Game{
		cfg:      cfg,
		registry: registry,
		words:    words,
	}
}

// serveWS upgrades the connection, performs the join handshake, and hands
// the player off to its session loop. The handler blocks until the session
// signals completion, so the connection outlives the handshake.
func (g *Game) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(g.cfg, "GAME: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			_ = conn.Close()
			return
		}
		if msg.Type != typeJoin || msg.Name == "" {
			closeProtocol(conn, "expected a join packet")
			return
		}

		player := newPlayer(msg.Name, conn)
		g.registry.Upsert(player)
		player.enqueue(&JoinedMessage{Type: "joined", Player: player.Summary()})

		logf(g.cfg, "GAME: Player %q joined from %s (session %s)", player.Name, realIP(r), player.connID)

		go player.writePump()
		go g.leaderboardLoop(player)
		go g.sessionLoop(player)

		// Released either by this session's own disconnect or by a
		// reconnection under the same name superseding it.
		<-player.done
		_ = conn.Close()
	}
}

// sessionLoop reads one packet at a time and dispatches it. Disconnects and
// protocol violations both end the session; only the latter sends a close
// reason first.
func (g *Game) sessionLoop(p *Player) {
	defer func() {
		if m := p.currentMatch(); m != nil {
			m.Forfeit(p)
		}
		p.setStatus(StatusDisconnected)
		p.signalDone()
		logf(g.cfg, "GAME: Player %q disconnected (session %s)", p.Name, p.connID)
	}()

	for {
		var msg ClientMessage
		if err := p.conn.ReadJSON(&msg); err != nil {
			if isMalformed(err) {
				closeProtocol(p.conn, "malformed packet")
			}
			return
		}

		switch msg.Type {
		case typeStart:
			if !g.registry.MarkWaiting(p) {
				logf(g.cfg, "GAME: Ignoring start from %q while in a match", p.Name)
				continue
			}
			g.matchmake(p, msg.PlaySolo)
		case typeAnswer:
			match := p.currentMatch()
			if match == nil {
				closeProtocol(p.conn, "answer without an active match")
				return
			}
			match.Submit(p, msg.Answer)
		default:
			closeProtocol(p.conn, "unknown packet type")
			return
		}
	}
}

// matchmake pairs the requester with an opponent. Solo requests pair with
// the stand-in immediately. Otherwise the registry is searched honoring the
// played-with filter; if that fails but some other player is waiting, the
// requester's session suspends for the matchmaking timeout and then takes
// whoever is waiting, previous opponent or not. If nobody is waiting at
// all, the requester stays waiting until somebody else's request finds them.
func (g *Game) matchmake(p *Player, playSolo bool) {
	if playSolo {
		if !g.registry.ClaimSolo(p) {
			return
		}
		g.startMatch(p, nil)
		return
	}

	opponent := g.registry.ClaimWaitingOpponent(p, false)
	if opponent == nil {
		if g.registry.FindAnyWaitingOpponent(p) == nil {
			return
		}
		time.Sleep(g.cfg.matchmakingTimeout)
		opponent = g.registry.ClaimWaitingOpponent(p, true)
	}
	if opponent == nil {
		return
	}

	g.startMatch(p, opponent)
}

// startMatch links both sides to a fresh match and starts its first round.
// Both players are already marked playing by the time we get here.
func (g *Game) startMatch(p, opponent *Player) {
	match := newMatch(g, p, opponent)

	p.setMatch(match)
	p.enqueue(&MatchMessage{Type: "match", OtherPlayerName: match.opponentName(p)})

	if opponent != nil {
		opponent.setMatch(match)
		opponent.enqueue(&MatchMessage{Type: "match", OtherPlayerName: p.Name})
		p.addPlayedWith(opponent.Name)
		opponent.addPlayedWith(p.Name)
	}

	logf(g.cfg, "GAME: Match started: %q vs %q", p.Name, match.opponentName(p))

	match.startRound()
}

// leaderboardLoop pushes registry snapshots to one player until their
// session ends. Sends are best-effort; a full buffer just skips a tick.
func (g *Game) leaderboardLoop(p *Player) {
	ticker := time.NewTicker(g.cfg.leaderboardInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			// The session may have ended between the tick firing and us
			// getting scheduled; check again before sending.
			select {
			case <-p.done:
				return
			default:
			}
			p.enqueueBestEffort(&LeaderboardMessage{Type: "leaderboard", Players: g.registry.Snapshot()})
		}
	}
}

// closeProtocol tells the client why it is being dropped, then closes the
// connection. Control frames are safe to write concurrently with the pump.
func closeProtocol(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseInvalidFramePayloadData, reason), deadline)
	_ = conn.Close()
}

// isMalformed reports whether a read error came from an unparseable frame,
// as opposed to the peer going away.
func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
