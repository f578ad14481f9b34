package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

func newTestServer(t *testing.T) (*Game, string, func()) {
	t.Helper()

	g := newTestGame(t)

	mux := httprouter.New()
	mux.GET("/ws", g.serveWS())
	srv := httptest.NewServer(mux)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	return g, url, srv.Close
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", url, err)
	}

	return conn
}

func readPacket(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading packet: %v", err)
	}

	return msg
}

func expectPacket(t *testing.T, conn *websocket.Conn, packetType string) map[string]any {
	t.Helper()

	msg := readPacket(t, conn)
	if msg["type"] != packetType {
		t.Fatalf("expected %q packet, got %v", packetType, msg)
	}

	return msg
}

func TestSoloFlowOverWebSocket(t *testing.T) {
	_, url, done := newTestServer(t)
	defer done()

	conn := dial(t, url)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: "join", Name: "alice"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	joined := expectPacket(t, conn, "joined")
	player, _ := joined["player"].(map[string]any)
	if player["name"] != "alice" {
		t.Fatalf("expected joined packet for alice, got %v", joined)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "start", PlaySolo: true}); err != nil {
		t.Fatalf("sending start: %v", err)
	}
	matched := expectPacket(t, conn, "match")
	if matched["otherPlayerName"] != soloOpponentName {
		t.Errorf("expected solo opponent %q, got %v", soloOpponentName, matched)
	}

	prompt := expectPacket(t, conn, "prompt")
	fields, _ := prompt["prompt"].(map[string]any)
	if fields["text"] == "" || fields["options"] == nil {
		t.Errorf("expected prompt text and options, got %v", prompt)
	}
	if _, leaked := fields["answer"]; leaked {
		t.Error("canonical answer must not be sent to clients")
	}

	// A wrong answer in solo mode yields a verdict and another round.
	if err := conn.WriteJSON(ClientMessage{Type: "answer", Answer: "definitely wrong"}); err != nil {
		t.Fatalf("sending answer: %v", err)
	}
	verdict := expectPacket(t, conn, "answerStatus")
	if verdict["answerStatus"] != string(Incorrect) {
		t.Errorf("expected incorrect verdict, got %v", verdict)
	}
	expectPacket(t, conn, "prompt")
}

func TestReconnectKeepsScore(t *testing.T) {
	_, url, done := newTestServer(t)
	defer done()

	first := dial(t, url)
	defer first.Close()

	if err := first.WriteJSON(ClientMessage{Type: "join", Name: "bob"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	expectPacket(t, first, "joined")

	if err := first.WriteJSON(ClientMessage{Type: "start", PlaySolo: true}); err != nil {
		t.Fatalf("sending start: %v", err)
	}
	expectPacket(t, first, "match")
	expectPacket(t, first, "prompt")

	if err := first.WriteJSON(ClientMessage{Type: "answer", Answer: "definitely wrong"}); err != nil {
		t.Fatalf("sending answer: %v", err)
	}
	expectPacket(t, first, "answerStatus")

	// Same name again: the new session inherits the score and the old
	// session is forced out.
	second := dial(t, url)
	defer second.Close()

	if err := second.WriteJSON(ClientMessage{Type: "join", Name: "bob"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	joined := expectPacket(t, second, "joined")
	player, _ := joined["player"].(map[string]any)
	if got := player["incorrectAnswers"]; got != float64(1) {
		t.Errorf("expected carried incorrect count 1, got %v", got)
	}

	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var discard map[string]any
		if err := first.ReadJSON(&discard); err != nil {
			break
		}
	}
}

func TestUnknownPacketClosesConnection(t *testing.T) {
	_, url, done := newTestServer(t)
	defer done()

	conn := dial(t, url)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: "join", Name: "carol"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	expectPacket(t, conn, "joined")

	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("sending bogus packet: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var discard map[string]any
		err := conn.ReadJSON(&discard)
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData) {
			t.Errorf("expected a protocol-error close, got %v", err)
		}
		break
	}
}

func TestAnswerWithoutMatchClosesConnection(t *testing.T) {
	_, url, done := newTestServer(t)
	defer done()

	conn := dial(t, url)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: "join", Name: "dave"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	expectPacket(t, conn, "joined")

	if err := conn.WriteJSON(ClientMessage{Type: "answer", Answer: "anything"}); err != nil {
		t.Fatalf("sending answer: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var discard map[string]any
		err := conn.ReadJSON(&discard)
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData) {
			t.Errorf("expected a protocol-error close, got %v", err)
		}
		break
	}
}

func TestEnqueueClosesStalledConnection(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)

	mux := httprouter.New()
	mux.GET("/ws", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conns <- conn
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	defer client.Close()

	// No write pump: the buffer fills up and the next game packet gives
	// up on the connection instead of being dropped.
	p := newPlayer("eve", <-conns)
	for i := 0; i < cap(p.send); i++ {
		p.enqueueBestEffort(&LeaderboardMessage{Type: "leaderboard"})
	}
	p.enqueue(&PromptMessage{Type: "prompt", Prompt: &Prompt{Text: "gehen"}})

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Error("expected the stalled connection to be closed")
	}
}

func TestDisconnectForfeitsMatch(t *testing.T) {
	_, url, done := newTestServer(t)
	defer done()

	alice := dial(t, url)
	defer alice.Close()
	if err := alice.WriteJSON(ClientMessage{Type: "join", Name: "alice"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	expectPacket(t, alice, "joined")
	if err := alice.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatalf("sending start: %v", err)
	}

	bob := dial(t, url)
	defer bob.Close()
	if err := bob.WriteJSON(ClientMessage{Type: "join", Name: "bob"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	expectPacket(t, bob, "joined")
	if err := bob.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatalf("sending start: %v", err)
	}

	expectPacket(t, alice, "match")
	expectPacket(t, alice, "prompt")
	expectPacket(t, bob, "match")
	expectPacket(t, bob, "prompt")

	// Bob walks away mid-round; Alice wins by forfeit.
	bob.Close()

	end := expectPacket(t, alice, "matchEnd")
	if end["winnerName"] != "alice" {
		t.Errorf("expected alice to win by forfeit, got %v", end)
	}
}
