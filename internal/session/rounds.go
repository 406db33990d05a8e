package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amiecorso/top4/internal/game"
)

// ManualTimerIncrement is how much a host timer action adds.
const ManualTimerIncrement = 20 * time.Second

// appendRound selects the next turn owner round-robin and draws four
// fresh ideas. When fewer than four unused ideas remain, the used set is
// recycled before drawing. Caller holds the room lock.
func (m *Manager) appendRound(room *game.Room) error {
	playerIDs := room.PlayerIDs()
	if len(playerIDs) == 0 {
		return errors.New("room has no players")
	}
	owner := playerIDs[(room.CurrentRound-1)%len(playerIDs)]

	used := make(map[string]struct{}, len(room.UsedIdeas))
	for _, idea := range room.UsedIdeas {
		used[idea] = struct{}{}
	}
	available := make([]string, 0, len(room.Ideas))
	for _, idea := range room.Ideas {
		if _, ok := used[idea]; !ok {
			available = append(available, idea)
		}
	}
	if len(available) < game.IdeasPerRound {
		room.UsedIdeas = nil
		available = append(available[:0:0], room.Ideas...)
	}
	if len(available) < game.IdeasPerRound {
		return fmt.Errorf("idea pool has %d entries, need %d", len(available), game.IdeasPerRound)
	}

	m.rngMu.Lock()
	m.rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	m.rngMu.Unlock()
	selected := available[:game.IdeasPerRound]
	room.UsedIdeas = append(room.UsedIdeas, selected...)

	room.Rounds = append(room.Rounds, game.Round{
		CurrentPlayer:  owner,
		Ideas:          append([]string(nil), selected...),
		PlayerRankings: make(map[string][]int),
		Committed:      []string{},
		Scores:         make(map[string]int),
	})
	log.Printf("round started room_id=%s round=%d turn_owner=%s", room.ID, room.CurrentRound, owner)
	return nil
}

// SubmitRanking records one player's commitment for the current round.
// It reports false (no error) when the room is absent, not playing, the
// round is missing, or the player already committed; a commitment is
// never revised. The turn owner's own submission must be a complete
// permutation; predictions may be partial (0 marks an unranked slot, the
// automatic timeout fallback).
func (m *Manager) SubmitRanking(ctx context.Context, roomID, playerID string, ranking []int) (bool, error) {
	accepted := false
	err := m.withRoom(ctx, roomID, func(room *game.Room) error {
		if room.Status != game.StatusPlaying {
			return nil
		}
		round := room.CurrentRoundState()
		if round == nil || round.Revealed || round.HasCommitted(playerID) {
			return nil
		}
		if _, ok := room.FindPlayer(playerID); !ok {
			return nil
		}
		if playerID == round.CurrentPlayer {
			if err := game.ValidateRanking(ranking); err != nil {
				return err
			}
		} else if err := game.ValidatePartialRanking(ranking); err != nil {
			return err
		}
		committed := append([]int(nil), ranking...)
		round.PlayerRankings[playerID] = committed
		round.Committed = append(round.Committed, playerID)
		if playerID == round.CurrentPlayer {
			round.PlayerRanking = committed
		}
		accepted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if accepted {
		log.Printf("ranking committed room_id=%s player_id=%s", roomID, playerID)
	}
	return accepted, nil
}

// CanReveal is a lock-free read: true once every player has committed.
func (m *Manager) CanReveal(ctx context.Context, roomID string) bool {
	room, ok := m.GetRoom(ctx, roomID)
	if !ok || room.Status != game.StatusPlaying {
		return false
	}
	round := room.CurrentRoundState()
	return round != nil && len(round.Committed) == len(room.Players)
}

// CalculateScores seals the current round: each committed predictor earns
// one point per correctly placed idea, cumulative scores are updated, and
// the round is marked revealed. A round that is already revealed is left
// untouched, so double reveals never double-award.
func (m *Manager) CalculateScores(ctx context.Context, roomID string) (map[string]int, error) {
	scores := make(map[string]int)
	err := m.withRoom(ctx, roomID, func(room *game.Room) error {
		round := room.CurrentRoundState()
		if round == nil {
			return errors.New("round not started")
		}
		if round.Revealed {
			for id, points := range round.Scores {
				scores[id] = points
			}
			return nil
		}
		if round.PlayerRanking == nil {
			return errors.New("turn owner has not committed")
		}
		for _, playerID := range round.Committed {
			if playerID == round.CurrentPlayer {
				continue
			}
			points := game.ScorePrediction(round.PlayerRankings[playerID], round.PlayerRanking)
			round.Scores[playerID] = points
			scores[playerID] = points
			if player, ok := room.FindPlayer(playerID); ok {
				player.Score += points
			}
		}
		round.Revealed = true
		log.Printf("round revealed room_id=%s round=%d guessers=%d", room.ID, room.CurrentRound, len(scores))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// AdvanceToNextRound moves to the next round, or finishes the game when
// the round budget is spent. The returned bool reports whether a new
// round was created; false with a nil error means the game just finished
// (or the call was a no-op on a finished room).
func (m *Manager) AdvanceToNextRound(ctx context.Context, roomID string) (bool, error) {
	advanced := false
	err := m.withRoom(ctx, roomID, func(room *game.Room) error {
		if room.Status != game.StatusPlaying {
			return nil
		}
		if room.CurrentRound >= room.MaxRounds {
			room.Status = game.StatusFinished
			log.Printf("room finished room_id=%s rounds=%d", room.ID, room.CurrentRound)
			return nil
		}
		room.CurrentRound++
		if err := m.appendRound(room); err != nil {
			return err
		}
		advanced = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return advanced, nil
}

// VoidCurrentRound invalidates the round after a turn-owner timeout: one
// penalty point against the owner, no guesser scores, round sealed.
func (m *Manager) VoidCurrentRound(ctx context.Context, roomID string) (bool, error) {
	voided := false
	err := m.withRoom(ctx, roomID, func(room *game.Room) error {
		if room.Status != game.StatusPlaying {
			return nil
		}
		round := room.CurrentRoundState()
		if round == nil || round.Revealed {
			return nil
		}
		if owner, ok := room.FindPlayer(round.CurrentPlayer); ok {
			owner.Score--
		}
		round.Revealed = true
		round.Voided = true
		voided = true
		log.Printf("round voided room_id=%s round=%d turn_owner=%s", room.ID, room.CurrentRound, round.CurrentPlayer)
		return nil
	})
	if err != nil {
		return false, err
	}
	return voided, nil
}

// MarkPlayerReady records a player's readiness after a reveal; once every
// player is ready and rounds remain, the room advances in the same step.
func (m *Manager) MarkPlayerReady(ctx context.Context, roomID, playerID string) (advanced bool, readyCount int, err error) {
	err = m.withRoom(ctx, roomID, func(room *game.Room) error {
		if room.Status != game.StatusPlaying {
			return ErrWrongStatus
		}
		round := room.CurrentRoundState()
		if round == nil || !round.Revealed {
			return errors.New("round not revealed yet")
		}
		if _, ok := room.FindPlayer(playerID); !ok {
			return ErrPlayerNotFound
		}
		if !round.IsReady(playerID) {
			round.ReadyForNextRound = append(round.ReadyForNextRound, playerID)
		}
		readyCount = len(round.ReadyForNextRound)
		if readyCount == len(room.Players) && room.CurrentRound < room.MaxRounds {
			room.CurrentRound++
			if err := m.appendRound(room); err != nil {
				return err
			}
			advanced = true
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return advanced, readyCount, nil
}

// SetRoundTimer starts or extends the host-controlled countdown on the
// current round and returns the new deadline in epoch milliseconds.
// "start" begins a fresh increment; "add" extends whichever of the manual
// or round timer is running (currentRemainingSeconds carries the client's
// view of the round timer when no manual deadline exists yet).
func (m *Manager) SetRoundTimer(ctx context.Context, roomID, action string, currentRemainingSeconds int) (int64, error) {
	var endMs int64
	err := m.withRoom(ctx, roomID, func(room *game.Room) error {
		if room.Status != game.StatusPlaying {
			return ErrWrongStatus
		}
		round := room.CurrentRoundState()
		if round == nil || round.Revealed {
			return errors.New("round not found or already revealed")
		}
		now := time.Now().UnixMilli()
		increment := ManualTimerIncrement.Milliseconds()
		switch action {
		case "start":
			round.ManualTimerEndMs = now + increment
		case "add":
			switch {
			case round.ManualTimerEndMs != 0:
				end := round.ManualTimerEndMs
				if end < now {
					end = now
				}
				round.ManualTimerEndMs = end + increment
			case room.RoundDurationSeconds > 0 && currentRemainingSeconds > 0:
				round.ManualTimerEndMs = now + int64(currentRemainingSeconds)*1000 + increment
			case room.RoundDurationSeconds > 0:
				round.ManualTimerEndMs = now + int64(room.RoundDurationSeconds)*1000 + increment
			default:
				round.ManualTimerEndMs = now + increment
			}
		default:
			return fmt.Errorf("timer action must be %q or %q", "start", "add")
		}
		endMs = round.ManualTimerEndMs
		log.Printf("round timer set room_id=%s round=%d action=%s end_ms=%d", room.ID, room.CurrentRound, action, endMs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return endMs, nil
}
