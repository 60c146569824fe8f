package game

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MohitJain-git/wordle-royale/storage"
)

type sentEvent struct {
	name string
	data any
}

// fakeSession records everything sent to it. Safe for concurrent sends since
// a live heartbeat broadcasts from its own goroutine.
type fakeSession struct {
	id string

	mu     sync.Mutex
	events []sentEvent
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id}
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Send(event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{name: event, data: data})
}

// last returns the payload of the most recent event with the given name.
func (f *fakeSession) last(t *testing.T, name string) any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].name == name {
			return f.events[i].data
		}
	}
	t.Fatalf("session %s never received %q", f.id, name)
	return nil
}

func (f *fakeSession) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.name == name {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	svc := NewService(store, realWords, NewHub(zerolog.Nop()), zerolog.Nop())
	return svc, store
}

// pauseHeartbeat halts the room's live scheduler task so tests can drive
// heartbeatTick by hand. The pin taken here is never released, keeping the
// runtime shared with subsequent commands for the test's lifetime.
func pauseHeartbeat(svc *Service, roomID string) *roomRuntime {
	rt := svc.acquire(roomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	svc.stopHeartbeat(rt)
	return rt
}

func installHeartbeat(rt *roomRuntime, timer int, phase Phase, round int) *heartbeat {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	hb := &heartbeat{timer: timer, phase: phase, round: round, stop: make(chan struct{})}
	rt.hb = hb
	return hb
}

func roomIDFrom(t *testing.T, sess *fakeSession) string {
	t.Helper()
	room, ok := sess.last(t, EventJoinedSuccess).(*Room)
	require.True(t, ok, "joined_success payload is the room snapshot")
	return room.RoomID
}

// runningGame creates a two-player room, plays it to PLAYING with secrets
// WORD (alice) and GAME (bob), and pauses the scheduler.
func runningGame(t *testing.T) (*Service, *roomRuntime, *fakeSession, *fakeSession, string) {
	t.Helper()
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := newFakeSession("a")
	bob := newFakeSession("b")

	svc.CreateGame(ctx, alice, CreateGamePayload{Username: "alice"})
	roomID := roomIDFrom(t, alice)

	svc.JoinGame(ctx, bob, JoinGamePayload{RoomID: roomID, Username: "bob"})
	svc.StartGame(ctx, alice, StartGamePayload{RoomID: roomID, GuessingTimer: 30})
	svc.SubmitSecret(ctx, alice, SubmitSecretPayload{RoomID: roomID, Word: "WORD"})
	svc.SubmitSecret(ctx, bob, SubmitSecretPayload{RoomID: roomID, Word: "GAME"})

	rt := pauseHeartbeat(svc, roomID)
	return svc, rt, alice, bob, roomID
}

func (s *Service) loadRoom(t *testing.T, roomID string) *Room {
	t.Helper()
	room, err := s.getRoom(context.Background(), roomID)
	require.NoError(t, err)
	return room
}

func TestCreateGame(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	sess := newFakeSession("a")

	svc.CreateGame(context.Background(), sess, CreateGamePayload{Username: "alice", Mode: "ELIMINATION"})

	room, ok := sess.last(t, EventJoinedSuccess).(*Room)
	require.True(t, ok)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{4}$`), room.RoomID)
	assert.Equal(t, StatusLobby, room.Status)
	assert.Equal(t, "ELIMINATION", room.GameMode)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)

	stored := svc.loadRoom(t, room.RoomID)
	assert.Equal(t, "alice", stored.Players[0].Username)
}

func TestCreateGame_UsernameRequired(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	sess := newFakeSession("a")

	svc.CreateGame(context.Background(), sess, CreateGamePayload{Username: "   "})

	msg, ok := sess.last(t, EventErrorMessage).(ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, "username required", msg.Message)
}

func TestJoinGame(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := newFakeSession("a")
	bob := newFakeSession("b")

	svc.CreateGame(ctx, alice, CreateGamePayload{Username: "alice"})
	roomID := roomIDFrom(t, alice)

	// Room codes join case-insensitively.
	svc.JoinGame(ctx, bob, JoinGamePayload{RoomID: strings.ToLower(roomID), Username: "bob"})

	joined, ok := bob.last(t, EventJoinedSuccess).(*Room)
	require.True(t, ok)
	assert.Len(t, joined.Players, 2)

	players, ok := alice.last(t, EventPlayerJoined).([]*Player)
	require.True(t, ok, "existing members get the refreshed roster")
	assert.Len(t, players, 2)
}

func TestJoinGame_Rejections(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := newFakeSession("a")
	svc.CreateGame(ctx, alice, CreateGamePayload{Username: "alice"})
	roomID := roomIDFrom(t, alice)

	ghost := newFakeSession("g")
	svc.JoinGame(ctx, ghost, JoinGamePayload{RoomID: "ZZZZ", Username: "ghost"})
	msg := ghost.last(t, EventErrorMessage).(ErrorMessage)
	assert.Equal(t, ErrRoomNotFound.Error(), msg.Message)

	dupe := newFakeSession("d")
	svc.JoinGame(ctx, dupe, JoinGamePayload{RoomID: roomID, Username: "ALICE"})
	msg = dupe.last(t, EventErrorMessage).(ErrorMessage)
	assert.Equal(t, ErrUsernameTaken.Error(), msg.Message)
}

func TestStartGame_RequiresTwoPlayers(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := newFakeSession("a")
	svc.CreateGame(ctx, alice, CreateGamePayload{Username: "alice"})
	roomID := roomIDFrom(t, alice)

	svc.StartGame(ctx, alice, StartGamePayload{RoomID: roomID, GuessingTimer: 30})
	msg := alice.last(t, EventErrorMessage).(ErrorMessage)
	assert.Equal(t, ErrInsufficientPlayers.Error(), msg.Message)
}

func TestSubmitSecret_StartsGameWhenAllReady(t *testing.T) {
	t.Parallel()

	svc, rt, alice, bob, roomID := runningGame(t)

	accepted := alice.last(t, EventWordAccepted).(WordAccepted)
	assert.Equal(t, "WORD", accepted.Word)

	assert.Equal(t, 1, alice.count(EventGameStarted))
	assert.Equal(t, 1, bob.count(EventGameStarted))

	room := svc.loadRoom(t, roomID)
	assert.Equal(t, StatusPlaying, room.Status)
	assert.Equal(t, PhaseGuessing, room.Phase)
	assert.Equal(t, 1, room.Round)
	assert.True(t, RingIntact(room))

	// The scheduler was running until the test paused it.
	assert.Nil(t, rt.hb)
}

func TestSubmitSecret_BroadcastsAreMasked(t *testing.T) {
	t.Parallel()

	_, _, alice, bob, _ := runningGame(t)

	for _, sess := range []*fakeSession{alice, bob} {
		snapshot := sess.last(t, EventGameStateUpdate).(*Room)
		for _, p := range snapshot.Players {
			assert.Equal(t, SecretMask, p.SecretWord, "secret for %s leaked to %s", p.Username, sess.id)
		}
	}
}

func TestSubmitGuess_FeedAndIntel(t *testing.T) {
	t.Parallel()

	svc, _, alice, bob, roomID := runningGame(t)
	ctx := context.Background()

	// bob hunts alice (WORD). GYRE matches only the R, in place.
	svc.SubmitGuess(ctx, bob, SubmitGuessPayload{RoomID: roomID, Guess: "gyre"})

	feed := alice.last(t, EventFeedUpdate).(FeedUpdate)
	assert.Equal(t, FeedUpdate{Username: "bob", Result: "1B 0C", Type: FeedGuess, Guess: "GYRE"}, feed)

	room := svc.loadRoom(t, roomID)
	stored := room.FindPlayer("b")
	require.Len(t, stored.Intel["a"], 1)
	assert.Equal(t, "GYRE", stored.Intel["a"][0].Word)
	assert.True(t, stored.HasGuessed)
	assert.Equal(t, 0, bob.count(EventEliminationAlert))
}

func TestSubmitGuess_EliminationEndsGame(t *testing.T) {
	t.Parallel()

	svc, _, alice, bob, roomID := runningGame(t)
	ctx := context.Background()

	svc.SubmitGuess(ctx, alice, SubmitGuessPayload{RoomID: roomID, Guess: "GAME"})

	alert := bob.last(t, EventEliminationAlert).(*EliminationNotice)
	assert.Equal(t, "bob", alert.VictimName)

	feed := bob.last(t, EventFeedUpdate).(FeedUpdate)
	assert.Equal(t, FeedElimination, feed.Type)
	assert.Equal(t, "4B 0C", feed.Result)

	room := svc.loadRoom(t, roomID)
	assert.Equal(t, StatusGameOver, room.Status)
	assert.Equal(t, "alice", room.Winner)
	assert.False(t, room.FindPlayer("b").IsAlive)
}

func TestSubmitGuess_ForcedTimerZeroReachesScheduler(t *testing.T) {
	t.Parallel()

	svc, rt, alice, bob, roomID := runningGame(t)
	ctx := context.Background()
	hb := installHeartbeat(rt, 25, PhaseGuessing, 1)

	svc.SubmitGuess(ctx, alice, SubmitGuessPayload{RoomID: roomID, Guess: "MICE"})
	rt.mu.Lock()
	assert.Equal(t, 25, hb.timer, "first guess must not end the round")
	rt.mu.Unlock()

	svc.SubmitGuess(ctx, bob, SubmitGuessPayload{RoomID: roomID, Guess: "MICE"})
	rt.mu.Lock()
	assert.Equal(t, 0, hb.timer, "last alive guess collapses the countdown")
	rt.mu.Unlock()

	room := svc.loadRoom(t, roomID)
	assert.Equal(t, 0, room.Timer)
}

func TestHeartbeatTick_Countdown(t *testing.T) {
	t.Parallel()

	svc, rt, alice, _, roomID := runningGame(t)
	hb := installHeartbeat(rt, 3, PhaseGuessing, 1)

	done := svc.heartbeatTick(roomID, rt, hb)
	assert.False(t, done)
	assert.Equal(t, 2, hb.timer)

	update := alice.last(t, EventTimerUpdate).(TimerUpdate)
	assert.Equal(t, TimerUpdate{Timer: 2, Phase: PhaseGuessing, Round: 1}, update)
	assert.Nil(t, update.Players, "no roster mid-countdown")
}

func TestHeartbeatTick_PhaseToggle(t *testing.T) {
	t.Parallel()

	svc, rt, alice, bob, roomID := runningGame(t)
	ctx := context.Background()

	// Burn the round so HasGuessed is set for both players.
	svc.SubmitGuess(ctx, alice, SubmitGuessPayload{RoomID: roomID, Guess: "MICE"})
	svc.SubmitGuess(ctx, bob, SubmitGuessPayload{RoomID: roomID, Guess: "MICE"})

	hb := installHeartbeat(rt, 0, PhaseGuessing, 1)

	// Expired guessing round opens a cooldown.
	done := svc.heartbeatTick(roomID, rt, hb)
	assert.False(t, done)
	assert.Equal(t, PhaseCooldown, hb.phase)
	assert.Equal(t, CooldownSeconds, hb.timer)

	room := svc.loadRoom(t, roomID)
	assert.Equal(t, PhaseCooldown, room.Phase)
	assert.True(t, room.FindPlayer("a").HasGuessed, "guesses persist through cooldown")

	// Expired cooldown opens the next guessing round.
	hb.timer = 0
	done = svc.heartbeatTick(roomID, rt, hb)
	assert.False(t, done)
	assert.Equal(t, PhaseGuessing, hb.phase)
	assert.Equal(t, 30, hb.timer)
	assert.Equal(t, 2, hb.round)

	room = svc.loadRoom(t, roomID)
	assert.Equal(t, 2, room.Round)
	assert.False(t, room.FindPlayer("a").HasGuessed)
	assert.False(t, room.FindPlayer("b").HasGuessed)

	update := alice.last(t, EventTimerUpdate).(TimerUpdate)
	require.NotNil(t, update.Players, "new guessing round ships the roster")
	for _, p := range update.Players {
		assert.Equal(t, SecretMask, p.SecretWord)
		assert.False(t, p.HasGuessed)
	}
}

func TestHeartbeatTick_GameOverHalts(t *testing.T) {
	t.Parallel()

	svc, rt, alice, _, roomID := runningGame(t)
	ctx := context.Background()

	svc.SubmitGuess(ctx, alice, SubmitGuessPayload{RoomID: roomID, Guess: "GAME"})

	hb := installHeartbeat(rt, 0, PhaseGuessing, 1)
	done := svc.heartbeatTick(roomID, rt, hb)
	assert.True(t, done)
	assert.True(t, hb.halted())
}

func TestHeartbeatTick_HaltedBetweenTickAndLock(t *testing.T) {
	t.Parallel()

	svc, rt, _, _, roomID := runningGame(t)
	hb := installHeartbeat(rt, 10, PhaseGuessing, 1)
	hb.halt()

	assert.True(t, svc.heartbeatTick(roomID, rt, hb))
	assert.Equal(t, 10, hb.timer, "halted task must not mutate state")
}

func TestResetGame(t *testing.T) {
	t.Parallel()

	svc, _, alice, bob, roomID := runningGame(t)
	ctx := context.Background()

	// Not over yet.
	svc.ResetGame(ctx, alice, ResetGamePayload{RoomID: roomID})
	msg := alice.last(t, EventErrorMessage).(ErrorMessage)
	assert.Equal(t, ErrWrongPhase.Error(), msg.Message)

	svc.SubmitGuess(ctx, alice, SubmitGuessPayload{RoomID: roomID, Guess: "GAME"})
	svc.ResetGame(ctx, alice, ResetGamePayload{RoomID: roomID})

	room := svc.loadRoom(t, roomID)
	assert.Equal(t, StatusLobby, room.Status)
	assert.Len(t, room.Players, 2)
	for _, p := range room.Players {
		assert.True(t, p.IsAlive)
		assert.Empty(t, p.SecretWord)
	}

	snapshot := bob.last(t, EventGameStateUpdate).(*Room)
	assert.Equal(t, StatusLobby, snapshot.Status)
}

func TestRuntimeNotLeakedByUnknownRoom(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	sess := newFakeSession("x")

	svc.JoinGame(ctx, sess, JoinGamePayload{RoomID: "ZZZZ", Username: "xena"})
	svc.StartGame(ctx, sess, StartGamePayload{RoomID: "ZZZZ", GuessingTimer: 30})
	svc.SubmitGuess(ctx, sess, SubmitGuessPayload{RoomID: "ZZZZ", Guess: "WORD"})

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.runtimes, "rejected commands must not accumulate runtimes")
}

func TestRuntimeLifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := newFakeSession("a")
	bob := newFakeSession("b")

	svc.CreateGame(ctx, alice, CreateGamePayload{Username: "alice"})
	roomID := roomIDFrom(t, alice)

	pinned := func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		_, ok := svc.runtimes[roomID]
		return ok
	}
	assert.False(t, pinned(), "idle lobby rooms hold no runtime between commands")

	svc.JoinGame(ctx, bob, JoinGamePayload{RoomID: roomID, Username: "bob"})
	svc.StartGame(ctx, alice, StartGamePayload{RoomID: roomID, GuessingTimer: 30})
	svc.SubmitSecret(ctx, alice, SubmitSecretPayload{RoomID: roomID, Word: "WORD"})
	svc.SubmitSecret(ctx, bob, SubmitSecretPayload{RoomID: roomID, Word: "GAME"})

	assert.True(t, pinned(), "a live heartbeat keeps the runtime resident")
}

func TestDisconnect_LobbyRemovesPlayer(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := newFakeSession("a")
	bob := newFakeSession("b")

	svc.CreateGame(ctx, alice, CreateGamePayload{Username: "alice"})
	roomID := roomIDFrom(t, alice)
	svc.JoinGame(ctx, bob, JoinGamePayload{RoomID: roomID, Username: "bob"})

	svc.Disconnect(ctx, bob)

	room := svc.loadRoom(t, roomID)
	require.Len(t, room.Players, 1)
	assert.Equal(t, "alice", room.Players[0].Username)

	snapshot := alice.last(t, EventGameStateUpdate).(*Room)
	assert.Len(t, snapshot.Players, 1)
}

func TestDisconnect_LastPlayerDeletesRoom(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()
	alice := newFakeSession("a")

	svc.CreateGame(ctx, alice, CreateGamePayload{Username: "alice"})
	roomID := roomIDFrom(t, alice)

	svc.Disconnect(ctx, alice)

	_, err := store.Get(ctx, roomKey(roomID))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDisconnect_MidGameKeepsDocument(t *testing.T) {
	t.Parallel()

	svc, _, _, bob, roomID := runningGame(t)
	ctx := context.Background()

	svc.Disconnect(ctx, bob)

	room := svc.loadRoom(t, roomID)
	assert.Len(t, room.Players, 2, "the ring must stay intact")
	assert.True(t, RingIntact(room))

	// The departed session no longer receives broadcasts.
	before := bob.count(EventGameStateUpdate)
	svc.SubmitGuess(ctx, newFakeSession("a"), SubmitGuessPayload{RoomID: roomID, Guess: "MICE"})
	assert.Equal(t, before, bob.count(EventGameStateUpdate))
}

// MockSession backs assertions about exactly what reaches a client.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) ID() string {
	return m.Called().String(0)
}

func (m *MockSession) Send(event string, data any) {
	m.Called(event, data)
}

func TestStartGame_UnknownRoomErrorPath(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	sess := new(MockSession)
	sess.On("ID").Return("m").Maybe()
	sess.On("Send", EventErrorMessage, ErrorMessage{Message: ErrRoomNotFound.Error()}).Once()

	svc.StartGame(context.Background(), sess, StartGamePayload{RoomID: "ZZZZ", GuessingTimer: 30})

	sess.AssertExpectations(t)
}
