package server

import (
	"sort"

	"github.com/amiecorso/top4/internal/game"
)

// snapshot is the broadcast view of a room. Rankings stay hidden until
// the round is revealed so clients cannot peek at other predictions.
func snapshot(room *game.Room) map[string]any {
	players := make([]map[string]any, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, map[string]any{
			"id":           p.ID,
			"name":         p.Name,
			"score":        p.Score,
			"is_connected": p.IsConnected,
		})
	}
	payload := map[string]any{
		"type":                  "room_update",
		"id":                    room.ID,
		"code":                  room.Code,
		"status":                room.Status,
		"host":                  room.Host,
		"players":               players,
		"current_round":         room.CurrentRound,
		"max_rounds":            room.MaxRounds,
		"selected_categories":   room.SelectedCategories,
		"new_prompt_percentage": room.NewPromptPercentage,
	}
	if room.Status == game.StatusPromptSubmission {
		payload["required_prompts_per_player"] = room.RequiredPromptsPerPlayer
		remaining := make(map[string]int, len(room.Players))
		for _, p := range room.Players {
			remaining[p.ID] = room.RequiredPromptsPerPlayer - len(room.PlayerPrompts[p.ID])
		}
		payload["prompts_remaining"] = remaining
	}
	if round := room.CurrentRoundState(); round != nil {
		payload["round"] = snapshotRound(round)
	}
	if room.Status == game.StatusFinished {
		payload["standings"] = standings(room)
	}
	return payload
}

func snapshotRound(round *game.Round) map[string]any {
	view := map[string]any{
		"current_player": round.CurrentPlayer,
		"ideas":          round.Ideas,
		"committed":      append([]string(nil), round.Committed...),
		"revealed":       round.Revealed,
		"voided":         round.Voided,
	}
	if round.ManualTimerEndMs > 0 {
		view["manual_timer_end_time"] = round.ManualTimerEndMs
	}
	if len(round.ReadyForNextRound) > 0 {
		view["ready_for_next_round"] = append([]string(nil), round.ReadyForNextRound...)
	}
	if round.Revealed {
		view["player_ranking"] = round.PlayerRanking
		rankings := make(map[string][]int, len(round.PlayerRankings))
		for id, ranking := range round.PlayerRankings {
			rankings[id] = ranking
		}
		view["player_rankings"] = rankings
		scores := make(map[string]int, len(round.Scores))
		for id, score := range round.Scores {
			scores[id] = score
		}
		view["scores"] = scores
	}
	return view
}

func standings(room *game.Room) []map[string]any {
	ranked := append([]game.Player(nil), room.Players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	result := make([]map[string]any, 0, len(ranked))
	for place, p := range ranked {
		result = append(result, map[string]any{
			"place": place + 1,
			"id":    p.ID,
			"name":  p.Name,
			"score": p.Score,
		})
	}
	return result
}
