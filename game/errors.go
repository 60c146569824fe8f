package game

import "errors"

// Player-facing rejections. All leave room state untouched and are delivered
// to the originating connection as an error_message event.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrGameInProgress      = errors.New("game already in progress")
	ErrUsernameTaken       = errors.New("username taken")
	ErrInsufficientPlayers = errors.New("need at least 2 players")
	ErrInvalidWord         = errors.New("not a valid word, must be 4 unique letters")
	ErrNotAlive            = errors.New("you are eliminated")
	ErrWrongPhase          = errors.New("wait for the next round")
	ErrAlreadyGuessed      = errors.New("you already guessed this round")
)
