package game

import "time"

const (
	StatusWaiting          = "waiting"
	StatusPromptSubmission = "prompt_submission"
	StatusPlaying          = "playing"
	StatusFinished         = "finished"
)

const (
	// IdeasPerRound is the number of items a turn owner ranks each round.
	IdeasPerRound = 4

	MinRounds = 1
	MaxRounds = 30
)

// Room is the aggregate root: one record per game, addressable by id or
// by its 4-letter join code.
type Room struct {
	ID                       string              `json:"id"`
	Code                     string              `json:"code"`
	Players                  []Player            `json:"players"`
	Host                     string              `json:"host"`
	Status                   string              `json:"status"`
	CurrentRound             int                 `json:"current_round"`
	MaxRounds                int                 `json:"max_rounds"`
	Rounds                   []Round             `json:"rounds"`
	Ideas                    []string            `json:"ideas"`
	UsedIdeas                []string            `json:"used_ideas"`
	SelectedCategories       []string            `json:"selected_categories"`
	NewPromptPercentage      int                 `json:"new_prompt_percentage"`
	RequiredPromptsPerPlayer int                 `json:"required_prompts_per_player"`
	PlayerPrompts            map[string][]string `json:"player_prompts"`
	RoundDurationSeconds     int                 `json:"round_duration_seconds"`
	CreatedAt                time.Time           `json:"created_at"`
}

// Player join order is the slice order; round-robin turn selection
// depends on it.
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	IsConnected bool   `json:"is_connected"`
}

// Round holds one turn. Once Revealed is true the commitments and scores
// are sealed and never change.
type Round struct {
	CurrentPlayer     string           `json:"current_player"`
	Ideas             []string         `json:"ideas"`
	PlayerRanking     []int            `json:"player_ranking,omitempty"`
	PlayerRankings    map[string][]int `json:"player_rankings"`
	Committed         []string         `json:"committed"`
	Revealed          bool             `json:"revealed"`
	Scores            map[string]int   `json:"scores"`
	Voided            bool             `json:"voided,omitempty"`
	ReadyForNextRound []string         `json:"ready_for_next_round,omitempty"`
	ManualTimerEndMs  int64            `json:"manual_timer_end_time,omitempty"`
}

// CurrentRoundState returns the in-progress round, or nil before the game
// has started.
func (r *Room) CurrentRoundState() *Round {
	if r.CurrentRound < 1 || r.CurrentRound > len(r.Rounds) {
		return nil
	}
	return &r.Rounds[r.CurrentRound-1]
}

func (r *Room) FindPlayer(playerID string) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return &r.Players[i], true
		}
	}
	return nil, false
}

// PlayerIDs preserves join order.
func (r *Room) PlayerIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for i := range r.Players {
		ids = append(ids, r.Players[i].ID)
	}
	return ids
}

func (rd *Round) HasCommitted(playerID string) bool {
	for _, id := range rd.Committed {
		if id == playerID {
			return true
		}
	}
	return false
}

func (rd *Round) IsReady(playerID string) bool {
	for _, id := range rd.ReadyForNextRound {
		if id == playerID {
			return true
		}
	}
	return false
}
