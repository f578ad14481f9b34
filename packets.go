package main

// Wire protocol for the game websocket. Every packet carries a "type"
// discriminator; field names are camelCase.

// Packet type tags sent by clients.
const (
	typeJoin   = "join"
	typeStart  = "start"
	typeAnswer = "answer"
)

// ClientMessage covers every packet a client may send. The Type tag decides
// which fields are meaningful.
type ClientMessage struct {
	Type     string `json:"type"`               // "join", "start", "answer"
	Name     string `json:"name,omitempty"`     // join
	PlaySolo bool   `json:"playSolo,omitempty"` // start
	Answer   string `json:"answer,omitempty"`   // answer
}

// AnswerStatus is the verdict for one side's pending answer in a round.
type AnswerStatus string

const (
	Unanswered AnswerStatus = "Unanswered"
	Correct    AnswerStatus = "Correct"
	Incorrect  AnswerStatus = "Incorrect"
)

// PlayerSummary is the public view of a player, used in the joined packet
// and in leaderboard rows.
type PlayerSummary struct {
	Name             string `json:"name"`
	CorrectAnswers   int    `json:"correctAnswers"`
	IncorrectAnswers int    `json:"incorrectAnswers"`
	TotalAnswers     int    `json:"totalAnswers"`
}

// JoinedMessage confirms a successful join handshake.
type JoinedMessage struct {
	Type   string        `json:"type"` // "joined"
	Player PlayerSummary `json:"player"`
}

// MatchMessage announces a successful pairing to one side.
type MatchMessage struct {
	Type            string `json:"type"` // "match"
	OtherPlayerName string `json:"otherPlayerName"`
}

// PromptMessage starts a round. The canonical answer never leaves the
// server; clients only see the text and the options.
type PromptMessage struct {
	Type   string  `json:"type"` // "prompt"
	Prompt *Prompt `json:"prompt"`
}

// AnswerStatusMessage tells one side their own verdict, before the shared
// round outcome is revealed.
type AnswerStatusMessage struct {
	Type         string       `json:"type"` // "answerStatus"
	AnswerStatus AnswerStatus `json:"answerStatus"`
}

// MatchEndMessage ends a match. WinnerName is empty when both sides
// answered incorrectly in the same round (a draw).
type MatchEndMessage struct {
	Type       string `json:"type"` // "matchEnd"
	WinnerName string `json:"winnerName"`
}

// LeaderboardMessage carries a full registry snapshot, including players
// that have since disconnected.
type LeaderboardMessage struct {
	Type    string          `json:"type"` // "leaderboard"
	Players []PlayerSummary `json:"players"`
}
