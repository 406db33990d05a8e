package game

import (
	"fmt"
	"strings"
)

// SuggestName returns an available variant of base for the room, trying
// "base (2)", "base (3)" and so on. Comparison is case-insensitive.
func SuggestName(room *Room, base string) string {
	base = strings.TrimSpace(base)
	inUse := make(map[string]struct{}, len(room.Players))
	for _, p := range room.Players {
		inUse[strings.ToLower(p.Name)] = struct{}{}
	}
	if _, ok := inUse[strings.ToLower(base)]; !ok {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if _, ok := inUse[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}
