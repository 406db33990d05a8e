package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/amiecorso/top4/internal/game"

	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength   = 20
	maxPromptLength = 140
)

var (
	validate      *validator.Validate
	validatorOnce sync.Once
)

func requestValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("prompt", func(fl validator.FieldLevel) bool {
			_, err := validatePrompt(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return game.ValidCategory(fl.Field().String())
		})
	})
	return validate
}

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validatePrompt(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", errors.New("prompt is required")
	}
	if len(trimmed) > maxPromptLength {
		return "", fmt.Errorf("prompt must be %d characters or fewer", maxPromptLength)
	}
	if !isSafeText(trimmed) {
		return "", errors.New("prompt contains unsupported characters")
	}
	return trimmed, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

// validateRankingValues accepts a full permutation or, when partial is
// allowed, zeros for unranked positions with distinct non-zero entries.
func validateRankingValues(ranking []int) error {
	if len(ranking) != game.IdeasPerRound {
		return fmt.Errorf("ranking must have %d entries", game.IdeasPerRound)
	}
	seen := make(map[int]bool, game.IdeasPerRound)
	for _, rank := range ranking {
		if rank < 0 || rank > game.IdeasPerRound {
			return fmt.Errorf("ranking values must be between 0 and %d", game.IdeasPerRound)
		}
		if rank == 0 {
			continue
		}
		if seen[rank] {
			return fmt.Errorf("ranking value %d appears twice", rank)
		}
		seen[rank] = true
	}
	return nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/':
			continue
		default:
			return false
		}
	}
	return true
}
