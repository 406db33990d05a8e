package game

import "math"

// Distribution sizes the prompt pool for one game: how many prompts the
// players must write themselves and how many are sampled from the catalog.
type Distribution struct {
	TotalPromptsNeeded    int
	NewPromptsRequired    int
	ExistingPromptsNeeded int
	PromptsPerPlayer      int
}

// CalculateDistribution maps (player count, round count, minimum
// new-prompt percentage) to pool sizes. NewPromptsRequired is always a
// multiple of numPlayers so that submissions split evenly: the minimum is
// rounded up to the next multiple, and if that overshoots the total it is
// clamped down to the largest multiple that still fits.
func CalculateDistribution(numPlayers, numRounds, minNewPromptPercentage int) Distribution {
	total := numRounds * IdeasPerRound
	minNew := float64(total) * float64(minNewPromptPercentage) / 100
	required := int(math.Ceil(minNew))
	if numPlayers > 0 {
		if rem := required % numPlayers; rem != 0 {
			required += numPlayers - rem
		}
		if required > total {
			required = total - total%numPlayers
		}
	}
	if required > total {
		required = total
	}
	perPlayer := 0
	if numPlayers > 0 {
		perPlayer = required / numPlayers
	}
	return Distribution{
		TotalPromptsNeeded:    total,
		NewPromptsRequired:    required,
		ExistingPromptsNeeded: total - required,
		PromptsPerPlayer:      perPlayer,
	}
}
