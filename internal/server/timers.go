package server

import (
	"context"
	"log"
	"time"

	"github.com/amiecorso/top4/internal/game"
)

// scheduleRoundDeadline arms the expiry timer for the room's current
// round. Rooms created without a round duration have no deadline until
// the host starts a manual timer.
func (s *Server) scheduleRoundDeadline(room *game.Room) {
	round := room.CurrentRoundState()
	if round == nil {
		s.cancelRoundDeadline(room.ID)
		return
	}
	if round.ManualTimerEndMs > 0 {
		s.scheduleDeadlineAt(room.ID, room.CurrentRound, round.ManualTimerEndMs)
		return
	}
	if room.RoundDurationSeconds <= 0 {
		s.cancelRoundDeadline(room.ID)
		return
	}
	duration := time.Duration(room.RoundDurationSeconds) * time.Second
	s.armTimer(room.ID, room.CurrentRound, duration)
}

func (s *Server) scheduleDeadlineAt(roomID string, roundNumber int, endMs int64) {
	if endMs <= 0 {
		return
	}
	end := time.UnixMilli(endMs)
	duration := time.Until(end)
	if duration < 0 {
		duration = 0
	}
	s.armTimer(roomID, roundNumber, duration)
}

func (s *Server) armTimer(roomID string, roundNumber int, duration time.Duration) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if existing, ok := s.timers[roomID]; ok {
		existing.Stop()
	}
	s.timers[roomID] = time.AfterFunc(duration, func() {
		s.expireRound(roomID, roundNumber)
	})
}

func (s *Server) cancelRoundDeadline(roomID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[roomID]; ok {
		timer.Stop()
		delete(s.timers, roomID)
	}
}

// expireRound fires when a round deadline passes. Predictors who never
// committed get an empty partial ranking so the reveal can proceed; if
// the turn owner never ranked there is nothing to score against, so the
// round is voided instead.
func (s *Server) expireRound(roomID string, roundNumber int) {
	ctx := context.Background()
	room, ok := s.manager.GetRoom(ctx, roomID)
	if !ok || room.Status != game.StatusPlaying || room.CurrentRound != roundNumber {
		return
	}
	round := room.CurrentRoundState()
	if round == nil || round.Revealed {
		return
	}

	if !round.HasCommitted(round.CurrentPlayer) {
		if voided, err := s.manager.VoidCurrentRound(ctx, roomID); err != nil {
			log.Printf("round expiry void failed room_id=%s round=%d error=%v", roomID, roundNumber, err)
			return
		} else if voided {
			log.Printf("round voided on timeout room_id=%s round=%d", roomID, roundNumber)
		}
		s.broadcastRoom(ctx, roomID)
		return
	}

	empty := make([]int, game.IdeasPerRound)
	for _, playerID := range room.PlayerIDs() {
		if round.HasCommitted(playerID) {
			continue
		}
		if _, err := s.manager.SubmitRanking(ctx, roomID, playerID, empty); err != nil {
			log.Printf("round expiry auto-submit failed room_id=%s player_id=%s error=%v", roomID, playerID, err)
		}
	}
	if s.manager.CanReveal(ctx, roomID) {
		if _, err := s.manager.CalculateScores(ctx, roomID); err != nil {
			log.Printf("round expiry reveal failed room_id=%s round=%d error=%v", roomID, roundNumber, err)
			return
		}
		log.Printf("round revealed on timeout room_id=%s round=%d", roomID, roundNumber)
	}
	s.broadcastRoom(ctx, roomID)
}
