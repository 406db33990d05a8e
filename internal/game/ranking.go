package game

import (
	"errors"
	"fmt"
)

// ValidateRanking checks a complete ranking: exactly IdeasPerRound entries
// forming a permutation of 1..4.
func ValidateRanking(ranking []int) error {
	if len(ranking) != IdeasPerRound {
		return fmt.Errorf("ranking must have exactly %d entries", IdeasPerRound)
	}
	var seen [IdeasPerRound + 1]bool
	for _, rank := range ranking {
		if rank < 1 || rank > IdeasPerRound {
			return errors.New("ranking entries must be between 1 and 4")
		}
		if seen[rank] {
			return errors.New("ranking entries must be distinct")
		}
		seen[rank] = true
	}
	return nil
}

// ValidatePartialRanking allows 0 as "unranked"; non-zero entries must be
// distinct and within 1..4. Used by the predictor timeout path.
func ValidatePartialRanking(ranking []int) error {
	if len(ranking) != IdeasPerRound {
		return fmt.Errorf("ranking must have exactly %d entries", IdeasPerRound)
	}
	var seen [IdeasPerRound + 1]bool
	for _, rank := range ranking {
		if rank == 0 {
			continue
		}
		if rank < 1 || rank > IdeasPerRound {
			return errors.New("ranking entries must be between 0 and 4")
		}
		if seen[rank] {
			return errors.New("ranking entries must be distinct")
		}
		seen[rank] = true
	}
	return nil
}

// ScorePrediction awards one point per idea placed at the same rank as the
// turn owner's ranking. Unranked (0) prediction entries never match.
func ScorePrediction(prediction, ranking []int) int {
	points := 0
	for i := 0; i < len(ranking) && i < len(prediction); i++ {
		if prediction[i] != 0 && prediction[i] == ranking[i] {
			points++
		}
	}
	return points
}
