package game

import (
	"strings"
	"time"
)

type Status string

const (
	StatusLobby         Status = "LOBBY"
	StatusSelectingWord Status = "SELECTING_WORD"
	StatusPlaying       Status = "PLAYING"
	StatusGameOver      Status = "GAME_OVER"
)

type Phase string

const (
	PhaseGuessing Phase = "GUESSING"
	PhaseCooldown Phase = "COOLDOWN"
)

const (
	// DefaultGuessingTimer applies until the host picks one at game start.
	DefaultGuessingTimer = 30
	// CooldownSeconds is the fixed buffer between guessing rounds.
	CooldownSeconds = 5
	// RoomTTL bounds storage growth from abandoned rooms.
	RoomTTL = 24 * time.Hour
)

// SecretMask replaces secret words in room snapshots sent to clients.
const SecretMask = "*****"

// GuessRecord is one entry of a player's intel against a target.
// Immutable once created.
type GuessRecord struct {
	Word      string `json:"word"`
	Bulls     int    `json:"bulls"`
	Bears     int    `json:"bears"`
	Round     int    `json:"round"`
	Timestamp int64  `json:"timestamp"`
}

type Player struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	IsHost     bool   `json:"isHost"`
	IsAlive    bool   `json:"isAlive"`
	SecretWord string `json:"secretWord,omitempty"`
	IsReady    bool   `json:"isReady"`
	HasGuessed bool   `json:"hasGuessed"`
	TargetID   string `json:"targetId,omitempty"`
	TargetName string `json:"targetName,omitempty"`

	// Intel maps a target's id to every guess this player has made against
	// them, in order. Elimination appends the victim's records, it never
	// replaces.
	Intel map[string][]GuessRecord `json:"intel,omitempty"`

	KilledBy   string `json:"killedBy,omitempty"`
	DeathRound int    `json:"deathRound,omitempty"`
}

// Room is the full persisted document for one game instance, stored as JSON
// at key room:<roomId>.
type Room struct {
	RoomID        string    `json:"roomId"`
	Status        Status    `json:"status"`
	GameMode      string    `json:"gameMode,omitempty"`
	Phase         Phase     `json:"phase,omitempty"`
	Round         int       `json:"round"`
	Timer         int       `json:"timer"`
	GuessingTimer int       `json:"guessingTimer"`
	Winner        string    `json:"winner,omitempty"`
	Players       []*Player `json:"players"`
	CreatedAt     int64     `json:"createdAt"`
}

// NewRoom seeds a room with its host. Status starts at LOBBY.
func NewRoom(roomID, hostID, username, gameMode string) *Room {
	return &Room{
		RoomID:   roomID,
		Status:   StatusLobby,
		GameMode: gameMode,
		Players: []*Player{{
			ID:       hostID,
			Username: username,
			IsHost:   true,
			IsAlive:  true,
		}},
		GuessingTimer: DefaultGuessingTimer,
		CreatedAt:     time.Now().UnixMilli(),
	}
}

func (r *Room) FindPlayer(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) FindByUsername(username string) *Player {
	for _, p := range r.Players {
		if strings.EqualFold(p.Username, username) {
			return p
		}
	}
	return nil
}

func (r *Room) AlivePlayers() []*Player {
	alive := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsAlive {
			alive = append(alive, p)
		}
	}
	return alive
}

// Masked returns a snapshot safe for room-wide broadcast: every set secret
// replaced by SecretMask. Intel is shared by reference; broadcasts marshal
// it without mutation.
func (r *Room) Masked() *Room {
	masked := *r
	masked.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		if cp.SecretWord != "" {
			cp.SecretWord = SecretMask
		}
		masked.Players[i] = &cp
	}
	return &masked
}
