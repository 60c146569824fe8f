package game

import (
	"strings"
	"time"
)

// WordChecker is the dictionary membership test. Injected so the transition
// logic stays pure.
type WordChecker func(word string) bool

// GuessResult describes one processed guess for broadcasting.
type GuessResult struct {
	Player          *Player
	Target          *Player
	Record          GuessRecord
	Elimination     *EliminationNotice // nil unless the guess was exact
	ForcedTimerZero bool               // every alive player has now guessed
}

// AddPlayer appends a player in LOBBY. Usernames are unique case-insensitively.
func (r *Room) AddPlayer(id, username string) (*Player, error) {
	if r.Status != StatusLobby {
		return nil, ErrGameInProgress
	}
	if r.FindByUsername(username) != nil {
		return nil, ErrUsernameTaken
	}

	player := &Player{
		ID:       id,
		Username: username,
		IsAlive:  true,
	}
	r.Players = append(r.Players, player)
	return player, nil
}

// Start moves the room to word selection with the host-chosen guessing timer.
func (r *Room) Start(guessingTimer int) error {
	if r.Status != StatusLobby {
		return ErrGameInProgress
	}
	if len(r.Players) < 2 {
		return ErrInsufficientPlayers
	}

	if guessingTimer > 0 {
		r.GuessingTimer = guessingTimer
	}
	r.Status = StatusSelectingWord
	return nil
}

// SetSecret records a player's secret word. When the last player readies up
// it assigns the target ring and flips the room into round 1 of PLAYING;
// the returned bool reports whether this submission started the game.
func (r *Room) SetSecret(playerID, word string, valid WordChecker) (bool, error) {
	if r.Status != StatusSelectingWord {
		return false, ErrWrongPhase
	}

	word = strings.ToUpper(strings.TrimSpace(word))
	if !valid(word) {
		return false, ErrInvalidWord
	}

	player := r.FindPlayer(playerID)
	if player == nil {
		return false, ErrPlayerNotFound
	}

	player.SecretWord = word
	player.IsReady = true

	for _, p := range r.Players {
		if !p.IsReady {
			return false, nil
		}
	}

	AssignTargets(r.Players)
	r.Status = StatusPlaying
	r.Phase = PhaseGuessing
	r.Round = 1
	r.Timer = r.GuessingTimer
	return true, nil
}

// Guess scores the player's guess against their current target, records the
// intel, and runs the elimination cascade on an exact match. When every alive
// player has guessed this round, the timer is forced to zero so the scheduler
// advances on its next tick instead of waiting out the countdown.
func (r *Room) Guess(playerID, guess string, valid WordChecker, now time.Time) (*GuessResult, error) {
	player := r.FindPlayer(playerID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if !player.IsAlive {
		return nil, ErrNotAlive
	}
	if r.Status != StatusPlaying || r.Phase != PhaseGuessing {
		return nil, ErrWrongPhase
	}
	if player.HasGuessed {
		return nil, ErrAlreadyGuessed
	}

	guess = strings.ToUpper(strings.TrimSpace(guess))
	if !valid(guess) {
		return nil, ErrInvalidWord
	}

	target := r.FindPlayer(player.TargetID)
	if target == nil {
		return nil, ErrPlayerNotFound
	}

	bulls, bears := Score(target.SecretWord, guess)
	record := GuessRecord{
		Word:      guess,
		Bulls:     bulls,
		Bears:     bears,
		Round:     r.Round,
		Timestamp: now.UnixMilli(),
	}

	if player.Intel == nil {
		player.Intel = make(map[string][]GuessRecord)
	}
	player.Intel[target.ID] = append(player.Intel[target.ID], record)
	player.HasGuessed = true

	result := &GuessResult{
		Player: player,
		Target: target,
		Record: record,
	}

	if bulls == len(target.SecretWord) {
		result.Elimination = r.eliminate(player, target)
	}

	if r.Status != StatusGameOver {
		allGuessed := true
		for _, p := range r.AlivePlayers() {
			if !p.HasGuessed {
				allGuessed = false
				break
			}
		}
		if allGuessed {
			r.Timer = 0
			result.ForcedTimerZero = true
		}
	}

	return result, nil
}

// eliminate marks the victim dead, relinks the ring so the eliminator hunts
// the victim's former target, and transfers the victim's intel on that target.
// The victim's own intel is left in place; it is simply no longer live.
func (r *Room) eliminate(eliminator, victim *Player) *EliminationNotice {
	victim.IsAlive = false
	victim.KilledBy = eliminator.Username
	victim.DeathRound = r.Round

	inheritedTargetID := victim.TargetID
	eliminator.TargetID = inheritedTargetID
	eliminator.TargetName = victim.TargetName

	inherited := victim.Intel[inheritedTargetID]
	if len(inherited) > 0 {
		if eliminator.Intel == nil {
			eliminator.Intel = make(map[string][]GuessRecord)
		}
		eliminator.Intel[inheritedTargetID] = append(eliminator.Intel[inheritedTargetID], inherited...)
	}

	if survivors := r.AlivePlayers(); len(survivors) == 1 {
		r.Status = StatusGameOver
		r.Winner = survivors[0].Username
	}

	return &EliminationNotice{
		VictimName:       victim.Username,
		NextTargetName:   eliminator.TargetName,
		StolenCluesCount: len(inherited),
	}
}

// Reset returns a finished room to the lobby. Identity, host flag and seat
// order survive; everything tied to the last game epoch is wiped.
func (r *Room) Reset() error {
	if r.Status != StatusGameOver {
		return ErrWrongPhase
	}

	r.Status = StatusLobby
	r.Phase = ""
	r.Winner = ""
	r.Round = 0
	r.Timer = 0

	for _, p := range r.Players {
		p.IsAlive = true
		p.SecretWord = ""
		p.IsReady = false
		p.HasGuessed = false
		p.TargetID = ""
		p.TargetName = ""
		p.Intel = nil
		p.KilledBy = ""
		p.DeathRound = 0
	}
	return nil
}

// RemovePlayer handles a departing connection. Removal is refused once the
// game is PLAYING or over: pulling a player out would break the hunt ring,
// so the player stays in the document as a phantom. Returns whether the
// player was removed.
func (r *Room) RemovePlayer(playerID string) bool {
	if r.Status != StatusLobby && r.Status != StatusSelectingWord {
		return false
	}

	index := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			index = i
			break
		}
	}
	if index == -1 {
		return false
	}

	r.Players = append(r.Players[:index], r.Players[index+1:]...)
	if len(r.Players) == 0 {
		return true
	}

	// A lone player mid word-selection goes back to an open lobby.
	if r.Status == StatusSelectingWord && len(r.Players) == 1 {
		r.Status = StatusLobby
		r.Players[0].IsHost = true
		r.Players[0].SecretWord = ""
		r.Players[0].IsReady = false
	}

	hasHost := false
	for _, p := range r.Players {
		if p.IsHost {
			hasHost = true
			break
		}
	}
	if !hasHost {
		r.Players[0].IsHost = true
	}

	return true
}
