package game

import "encoding/json"

// Inbound command events.
const (
	CmdCreateGame   = "create_game"
	CmdJoinGame     = "join_game"
	CmdStartGame    = "start_game_request"
	CmdSubmitSecret = "submit_secret_word"
	CmdSubmitGuess  = "submit_guess"
	CmdResetGame    = "reset_game"
)

// Outbound events.
const (
	EventJoinedSuccess    = "joined_success"
	EventPlayerJoined     = "player_joined"
	EventGameStateUpdate  = "game_state_update"
	EventGameStarted      = "game_started"
	EventWordAccepted     = "word_accepted"
	EventFeedUpdate       = "feed_update"
	EventEliminationAlert = "elimination_alert"
	EventTimerUpdate      = "timer_update"
	EventErrorMessage     = "error_message"
)

// Feed entry kinds for feed_update.
const (
	FeedGuess       = "GUESS"
	FeedElimination = "ELIMINATION"
)

// Envelope is the wire frame for both directions: an event name plus its
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type CreateGamePayload struct {
	Username string `json:"username"`
	Mode     string `json:"mode"`
}

type JoinGamePayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type StartGamePayload struct {
	RoomID        string `json:"roomId"`
	GuessingTimer int    `json:"guessingTimer"`
}

type SubmitSecretPayload struct {
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

type SubmitGuessPayload struct {
	RoomID string `json:"roomId"`
	Guess  string `json:"guess"`
}

type ResetGamePayload struct {
	RoomID string `json:"roomId"`
}

// TimerUpdate is broadcast by the heartbeat. Players is included only when a
// new GUESSING phase opens, so clients re-enable their inputs.
type TimerUpdate struct {
	Timer   int       `json:"timer"`
	Phase   Phase     `json:"phase"`
	Round   int       `json:"round"`
	Players []*Player `json:"players,omitempty"`
}

type FeedUpdate struct {
	Username string `json:"username"`
	Result   string `json:"result"`
	Type     string `json:"type"`
	Guess    string `json:"guess"`
}

type EliminationNotice struct {
	VictimName       string `json:"victimName"`
	NextTargetName   string `json:"nextTargetName"`
	StolenCluesCount int    `json:"stolenCluesCount"`
}

type WordAccepted struct {
	Word string `json:"word"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}
