package game

import (
	"context"
	"sync"
	"time"
)

// heartbeat is the per-room scheduler state. The countdown lives in memory
// so the store is only touched at phase boundaries; between boundaries every
// mutation of it happens under the room runtime lock, which is how a guess
// forcing an early round end reaches the scheduler exactly once.
type heartbeat struct {
	timer int
	phase Phase
	round int

	stop     chan struct{}
	stopOnce sync.Once
}

func (hb *heartbeat) halt() {
	hb.stopOnce.Do(func() { close(hb.stop) })
}

func (hb *heartbeat) halted() bool {
	select {
	case <-hb.stop:
		return true
	default:
		return false
	}
}

// startHeartbeat launches the room's 1-second scheduler task. Caller holds
// the runtime lock. A previous task, if any, is halted first so a reset and
// restart never leave two schedulers running against one room.
func (s *Service) startHeartbeat(roomID string, rt *roomRuntime, room *Room) {
	s.stopHeartbeat(rt)

	hb := &heartbeat{
		timer: room.Timer,
		phase: room.Phase,
		round: room.Round,
		stop:  make(chan struct{}),
	}
	rt.hb = hb

	go s.heartbeatLoop(roomID, rt, hb)
	s.log.Info().Str("room", roomID).Int("timer", hb.timer).Msg("heartbeat started")
}

// stopHeartbeat is idempotent; stopping an already-halted task is a no-op.
// Caller holds the runtime lock.
func (s *Service) stopHeartbeat(rt *roomRuntime) {
	if rt.hb != nil {
		rt.hb.halt()
		rt.hb = nil
	}
}

// detachHeartbeat halts a task ending itself mid-tick and, if it is still the
// runtime's current one, unhooks it so the runtime can be reclaimed once the
// last pin drops. Caller holds the runtime lock.
func (s *Service) detachHeartbeat(rt *roomRuntime, hb *heartbeat) {
	hb.halt()
	if rt.hb == hb {
		rt.hb = nil
	}
}

func (s *Service) heartbeatLoop(roomID string, rt *roomRuntime, hb *heartbeat) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-hb.stop:
			return
		case <-ticker.C:
			if done := s.heartbeatTick(roomID, rt, hb); done {
				return
			}
		}
	}
}

// heartbeatTick advances the room by one second. While the countdown is
// positive only the in-memory value changes and the new value is broadcast.
// At zero the authoritative document is re-read, the phase toggles, and the
// result is written back and broadcast.
func (s *Service) heartbeatTick(roomID string, rt *roomRuntime, hb *heartbeat) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	// A reset may have halted this task between the tick firing and the
	// lock being acquired.
	if hb.halted() {
		return true
	}

	if hb.timer > 0 {
		hb.timer--
		s.hub.ToRoom(roomID, EventTimerUpdate, TimerUpdate{
			Timer: hb.timer,
			Phase: hb.phase,
			Round: hb.round,
		})
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		s.log.Error().Err(err).Str("room", roomID).Msg("heartbeat lost its room, stopping")
		s.detachHeartbeat(rt, hb)
		return true
	}

	if room.Status == StatusGameOver {
		s.detachHeartbeat(rt, hb)
		s.log.Info().Str("room", roomID).Str("winner", room.Winner).Msg("heartbeat stopped, game over")
		return true
	}

	if room.Phase == PhaseGuessing {
		room.Phase = PhaseCooldown
		room.Timer = CooldownSeconds
	} else {
		room.Phase = PhaseGuessing
		room.Timer = room.GuessingTimer
		room.Round++
		for _, p := range room.Players {
			p.HasGuessed = false
		}
	}

	if err := s.saveRoom(ctx, room, 0); err != nil {
		s.log.Error().Err(err).Str("room", roomID).Msg("heartbeat failed to persist phase change, stopping")
		s.detachHeartbeat(rt, hb)
		return true
	}

	hb.timer = room.Timer
	hb.phase = room.Phase
	hb.round = room.Round

	update := TimerUpdate{
		Timer: room.Timer,
		Phase: room.Phase,
		Round: room.Round,
	}
	if room.Phase == PhaseGuessing {
		// Clients unlock input off the refreshed player list.
		update.Players = room.Masked().Players
	}
	s.hub.ToRoom(roomID, EventTimerUpdate, update)
	return false
}
