package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MohitJain-git/wordle-royale/storage"
)

const roomKeyPrefix = "room:"

func roomKey(roomID string) string {
	return roomKeyPrefix + roomID
}

// Service is the room controller: it receives client commands, funnels every
// mutation of a room's document through that room's single-writer lock, and
// broadcasts the results. One instance serves all rooms in the process.
type Service struct {
	store storage.DocumentStore
	valid WordChecker
	hub   RoomRegistry
	log   zerolog.Logger

	mu       sync.Mutex
	runtimes map[string]*roomRuntime
}

// roomRuntime is the in-process side of one room: the lock serializing all
// of its mutators, and the heartbeat state while a game is running.
type roomRuntime struct {
	mu sync.Mutex
	hb *heartbeat

	// pins counts commands currently holding this runtime. Guarded by
	// Service.mu, not by mu.
	pins int
}

func NewService(store storage.DocumentStore, valid WordChecker, hub RoomRegistry, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		valid:    valid,
		hub:      hub,
		log:      log,
		runtimes: make(map[string]*roomRuntime),
	}
}

// acquire pins the runtime for one command, creating it on first use. Every
// acquire is paired with a release; the entry survives between commands only
// while a heartbeat runs, so a command against a bogus room code leaves no
// residue behind.
func (s *Service) acquire(roomID string) *roomRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.runtimes[roomID]
	if !ok {
		rt = &roomRuntime{}
		s.runtimes[roomID] = rt
	}
	rt.pins++
	return rt
}

// release drops a pin. Caller still holds rt.mu, which makes the rt.hb read
// safe. Deleting only when unpinned and heartbeat-less guarantees concurrent
// commands for one room always share a single lock instance.
func (s *Service) release(roomID string, rt *roomRuntime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt.pins--
	if rt.pins == 0 && rt.hb == nil && s.runtimes[roomID] == rt {
		delete(s.runtimes, roomID)
	}
}

func (s *Service) getRoom(ctx context.Context, roomID string) (*Room, error) {
	data, err := s.store.Get(ctx, roomKey(roomID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	var room Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("corrupt room document %s: %w", roomID, err)
	}
	return &room, nil
}

// saveRoom writes the document back. ttl > 0 only on creation; updates keep
// the expiry armed when the room was created.
func (s *Service) saveRoom(ctx context.Context, room *Room, ttl time.Duration) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshaling room %s: %w", room.RoomID, err)
	}
	return s.store.Set(ctx, roomKey(room.RoomID), data, ttl)
}

// fail reports a command error to its originator. Store failures are fatal
// for the command and logged; rule rejections go back verbatim.
func (s *Service) fail(sess Session, roomID string, err error) {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrPlayerNotFound),
		errors.Is(err, ErrGameInProgress),
		errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrInsufficientPlayers),
		errors.Is(err, ErrInvalidWord),
		errors.Is(err, ErrNotAlive),
		errors.Is(err, ErrWrongPhase),
		errors.Is(err, ErrAlreadyGuessed):
		sess.Send(EventErrorMessage, ErrorMessage{Message: err.Error()})
	default:
		s.log.Error().Err(err).Str("room", roomID).Str("player", sess.ID()).Msg("command aborted")
		sess.Send(EventErrorMessage, ErrorMessage{Message: "something went wrong, try again"})
	}
}

// CreateGame allocates a fresh room with the requester as host.
func (s *Service) CreateGame(ctx context.Context, sess Session, p CreateGamePayload) {
	username := strings.TrimSpace(p.Username)
	if username == "" {
		sess.Send(EventErrorMessage, ErrorMessage{Message: "username required"})
		return
	}

	roomID, err := s.newRoomID(ctx)
	if err != nil {
		s.fail(sess, "", err)
		return
	}

	rt := s.acquire(roomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	defer s.release(roomID, rt)

	room := NewRoom(roomID, sess.ID(), username, p.Mode)
	if err := s.saveRoom(ctx, room, RoomTTL); err != nil {
		s.fail(sess, roomID, err)
		return
	}

	s.hub.Join(roomID, sess)
	sess.Send(EventJoinedSuccess, room.Masked())
	s.log.Info().Str("room", roomID).Str("player", sess.ID()).Str("username", username).Msg("room created")
}

func (s *Service) JoinGame(ctx context.Context, sess Session, p JoinGamePayload) {
	roomID := strings.ToUpper(strings.TrimSpace(p.RoomID))

	rt := s.acquire(roomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	defer s.release(roomID, rt)

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		s.fail(sess, roomID, err)
		return
	}

	if _, err := room.AddPlayer(sess.ID(), strings.TrimSpace(p.Username)); err != nil {
		s.fail(sess, roomID, err)
		return
	}
	if err := s.saveRoom(ctx, room, 0); err != nil {
		s.fail(sess, roomID, err)
		return
	}

	s.hub.Join(roomID, sess)
	masked := room.Masked()
	sess.Send(EventJoinedSuccess, masked)
	s.hub.ToRoom(roomID, EventPlayerJoined, masked.Players)
	s.log.Info().Str("room", roomID).Str("player", sess.ID()).Str("username", p.Username).Msg("player joined")
}

func (s *Service) StartGame(ctx context.Context, sess Session, p StartGamePayload) {
	rt := s.acquire(p.RoomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	defer s.release(p.RoomID, rt)

	room, err := s.getRoom(ctx, p.RoomID)
	if err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	if err := room.Start(p.GuessingTimer); err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}
	if err := s.saveRoom(ctx, room, 0); err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	s.hub.ToRoom(p.RoomID, EventGameStateUpdate, room.Masked())
	s.log.Info().Str("room", p.RoomID).Int("guessingTimer", room.GuessingTimer).Msg("word selection started")
}

func (s *Service) SubmitSecret(ctx context.Context, sess Session, p SubmitSecretPayload) {
	rt := s.acquire(p.RoomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	defer s.release(p.RoomID, rt)

	room, err := s.getRoom(ctx, p.RoomID)
	if err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	word := strings.ToUpper(strings.TrimSpace(p.Word))
	started, err := room.SetSecret(sess.ID(), word, s.valid)
	if err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}
	if err := s.saveRoom(ctx, room, 0); err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	sess.Send(EventWordAccepted, WordAccepted{Word: word})
	masked := room.Masked()
	s.hub.ToRoom(p.RoomID, EventGameStateUpdate, masked)

	if started {
		s.hub.ToRoom(p.RoomID, EventGameStarted, masked)
		s.startHeartbeat(room.RoomID, rt, room)
		s.log.Info().Str("room", p.RoomID).Int("players", len(room.Players)).Msg("all players ready, game started")
	}
}

func (s *Service) SubmitGuess(ctx context.Context, sess Session, p SubmitGuessPayload) {
	rt := s.acquire(p.RoomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	defer s.release(p.RoomID, rt)

	room, err := s.getRoom(ctx, p.RoomID)
	if err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	result, err := room.Guess(sess.ID(), p.Guess, s.valid, time.Now())
	if err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	// An early round end or a decided game must reach the scheduler through
	// the shared runtime, not only through the stored document, so the flip
	// happens on its next tick.
	if (result.ForcedTimerZero || room.Status == StatusGameOver) && rt.hb != nil {
		rt.hb.timer = 0
	}

	if err := s.saveRoom(ctx, room, 0); err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	s.hub.ToRoom(p.RoomID, EventGameStateUpdate, room.Masked())

	feedType := FeedGuess
	if result.Elimination != nil {
		feedType = FeedElimination
	}
	s.hub.ToRoom(p.RoomID, EventFeedUpdate, FeedUpdate{
		Username: result.Player.Username,
		Result:   fmt.Sprintf("%dB %dC", result.Record.Bulls, result.Record.Bears),
		Type:     feedType,
		Guess:    result.Record.Word,
	})

	if result.Elimination != nil {
		s.hub.ToRoom(p.RoomID, EventEliminationAlert, result.Elimination)
		s.log.Info().
			Str("room", p.RoomID).
			Str("eliminator", result.Player.Username).
			Str("victim", result.Elimination.VictimName).
			Int("stolenClues", result.Elimination.StolenCluesCount).
			Msg("player eliminated")
	}
	if room.Status == StatusGameOver {
		s.log.Info().Str("room", p.RoomID).Str("winner", room.Winner).Msg("game over")
	}
}

func (s *Service) ResetGame(ctx context.Context, sess Session, p ResetGamePayload) {
	rt := s.acquire(p.RoomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	defer s.release(p.RoomID, rt)

	room, err := s.getRoom(ctx, p.RoomID)
	if err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	if err := room.Reset(); err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	s.stopHeartbeat(rt)

	if err := s.saveRoom(ctx, room, 0); err != nil {
		s.fail(sess, p.RoomID, err)
		return
	}

	s.hub.ToRoom(p.RoomID, EventGameStateUpdate, room.Masked())
	s.log.Info().Str("room", p.RoomID).Msg("room reset to lobby")
}

// Disconnect removes a departed connection from whichever room holds it.
// Mid-game departures leave the document untouched (the ring must stay
// intact); the session just stops receiving broadcasts.
func (s *Service) Disconnect(ctx context.Context, sess Session) {
	keys, err := s.store.Keys(ctx, roomKeyPrefix)
	if err != nil {
		s.log.Error().Err(err).Str("player", sess.ID()).Msg("disconnect cleanup failed")
		return
	}

	for _, key := range keys {
		roomID := strings.TrimPrefix(key, roomKeyPrefix)
		if s.disconnectFromRoom(ctx, sess, roomID) {
			return
		}
	}
}

func (s *Service) disconnectFromRoom(ctx context.Context, sess Session, roomID string) bool {
	rt := s.acquire(roomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	defer s.release(roomID, rt)

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return false
	}
	if room.FindPlayer(sess.ID()) == nil {
		return false
	}

	s.hub.Leave(roomID, sess)

	if !room.RemovePlayer(sess.ID()) {
		s.log.Info().Str("room", roomID).Str("player", sess.ID()).Msg("disconnect during active game, keeping player in document")
		return true
	}

	if len(room.Players) == 0 {
		s.stopHeartbeat(rt)
		if err := s.store.Delete(ctx, roomKey(roomID)); err != nil {
			s.log.Error().Err(err).Str("room", roomID).Msg("failed to delete empty room")
		}
		s.hub.Drop(roomID)
		s.log.Info().Str("room", roomID).Msg("room deleted, last player left")
		return true
	}

	if err := s.saveRoom(ctx, room, 0); err != nil {
		s.log.Error().Err(err).Str("room", roomID).Msg("failed to save room after disconnect")
		return true
	}
	s.hub.ToRoom(roomID, EventGameStateUpdate, room.Masked())
	s.log.Info().Str("room", roomID).Str("player", sess.ID()).Msg("player left")
	return true
}
