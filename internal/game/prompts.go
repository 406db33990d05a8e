package game

import (
	"fmt"
	"math/rand"
	"sort"
)

// Prompt is one catalog entry; a prompt can belong to several categories.
type Prompt struct {
	Text string
	Tags []string
}

// CategoryNames maps category keys to display names.
var CategoryNames = map[string]string{
	"safeForWork":   "Safe for Work",
	"romantic":      "Romantic",
	"kidFriendly":   "Kid-Friendly",
	"baseAccount":   "Base Account",
	"nonsense":      "Nonsense",
	"abstract":      "Abstract",
	"popCulture":    "Pop Culture",
	"inappropriate": "Inappropriate",
}

// Catalog holds the built-in prompts with their category tags.
var Catalog = []Prompt{
	{Text: "building the tallest pillow fort", Tags: []string{"kidFriendly"}},
	{Text: "first day at a new school", Tags: []string{"kidFriendly"}},
	{Text: "winning a tiny prize at the fair", Tags: []string{"kidFriendly"}},
	{Text: "secret handshake with your best friend", Tags: []string{"kidFriendly"}},
	{Text: "finding a rainbow after the storm", Tags: []string{"kidFriendly"}},
	{Text: "the last slice of birthday cake", Tags: []string{"kidFriendly"}},
	{Text: "teaching a pet a new trick", Tags: []string{"kidFriendly"}},
	{Text: "splashing in puddles with boots", Tags: []string{"kidFriendly"}},
	{Text: "trading snacks at lunch", Tags: []string{"kidFriendly"}},
	{Text: "reading under a blanket with a flashlight", Tags: []string{"kidFriendly"}},
	{Text: "riding the biggest slide at the park", Tags: []string{"kidFriendly"}},
	{Text: "snowman that keeps falling over", Tags: []string{"kidFriendly"}},
	{Text: "catching fireflies in a jar", Tags: []string{"kidFriendly"}},
	{Text: "drawing with sidewalk chalk", Tags: []string{"kidFriendly"}},
	{Text: "hide-and-seek where nobody can find you", Tags: []string{"kidFriendly"}},
	{Text: "perfectly timed coffee break", Tags: []string{"safeForWork"}},
	{Text: "the meeting that could be an email", Tags: []string{"safeForWork"}},
	{Text: "pair programming that actually clicks", Tags: []string{"safeForWork"}},
	{Text: "naming things (the real hard problem)", Tags: []string{"safeForWork"}},
	{Text: "the calendar invite with no agenda", Tags: []string{"safeForWork"}},
	{Text: "quiet focus time with noise-cancelling on", Tags: []string{"safeForWork"}},
	{Text: "merging a PR on the first review", Tags: []string{"safeForWork"}},
	{Text: "laptop about to die during a call", Tags: []string{"safeForWork"}},
	{Text: "the office plant that refuses to die", Tags: []string{"safeForWork"}},
	{Text: "ending the week with inbox zero", Tags: []string{"safeForWork"}},
	{Text: "standing desk that keeps sinking", Tags: []string{"safeForWork"}},
	{Text: "last-minute production hotfix", Tags: []string{"safeForWork"}},
	{Text: "Friday deploys (are you brave?)", Tags: []string{"safeForWork"}},
	{Text: "remembering where you left your headphones", Tags: []string{"safeForWork"}},
	{Text: "running late", Tags: []string{"safeForWork"}},
	{Text: "unloading the dishwasher", Tags: []string{"safeForWork"}},
	{Text: "staying up too late", Tags: []string{"safeForWork"}},
	{Text: "forgetting someone's name", Tags: []string{"safeForWork"}},
	{Text: "choosing a seat on a crowded bus", Tags: []string{"safeForWork"}},
	{Text: "first week of a new job", Tags: []string{"safeForWork"}},
	{Text: "the smell of wet dog", Tags: []string{"safeForWork"}},
	{Text: "stepping on a crunchy leaf", Tags: []string{"safeForWork"}},
	{Text: "forgetting your phone at home", Tags: []string{"safeForWork"}},
	{Text: "arguing with a goose about rent", Tags: []string{"nonsense"}},
	{Text: "left sock forming a union", Tags: []string{"nonsense"}},
	{Text: "a sandwich that files taxes", Tags: []string{"nonsense"}},
	{Text: "gravity taking a personal day", Tags: []string{"nonsense"}},
	{Text: "banana that critiques modern art", Tags: []string{"nonsense"}},
	{Text: "the moon asking for a refund", Tags: []string{"nonsense"}},
	{Text: "dolphins running a startup", Tags: []string{"nonsense"}},
	{Text: "time traveling through a nap", Tags: []string{"nonsense"}},
	{Text: "a toaster with stage fright", Tags: []string{"nonsense"}},
	{Text: "staircase with commitment issues", Tags: []string{"nonsense"}},
	{Text: "clouds attending book club", Tags: []string{"nonsense"}},
	{Text: "a spoon that longs to be a fork", Tags: []string{"nonsense"}},
	{Text: "traffic cone with big dreams", Tags: []string{"nonsense"}},
	{Text: "calendar that forgets weekends", Tags: []string{"nonsense"}},
	{Text: "the taste of victory", Tags: []string{"abstract"}},
	{Text: "memories shaped like paper cranes", Tags: []string{"abstract"}},
	{Text: "time as a hallway of open doors", Tags: []string{"abstract"}},
	{Text: "silence that hums like neon", Tags: []string{"abstract"}},
	{Text: "hope in the pockets of a worn coat", Tags: []string{"abstract"}},
	{Text: "echoes that learn your name", Tags: []string{"abstract"}},
	{Text: "a sunrise that refuses to end", Tags: []string{"abstract"}},
	{Text: "laughter hiding under the floorboards", Tags: []string{"abstract"}},
	{Text: "gravity as a gentle suggestion", Tags: []string{"abstract"}},
	{Text: "patience growing like ivy", Tags: []string{"abstract"}},
	{Text: "dreams that leak into Tuesday", Tags: []string{"abstract"}},
	{Text: "a map with no north and many homes", Tags: []string{"abstract"}},
	{Text: "serendipity", Tags: []string{"safeForWork", "abstract"}},
	{Text: "second chances", Tags: []string{"safeForWork", "abstract"}},
	{Text: "losing your wordle streak", Tags: []string{"safeForWork", "popCulture"}},
	{Text: "throwing shade", Tags: []string{"safeForWork", "popCulture"}},
	{Text: "3-hour YouTube wormhole", Tags: []string{"safeForWork", "popCulture"}},
	{Text: "retail therapy", Tags: []string{"safeForWork", "popCulture"}},
	{Text: "\"...\" popping up in iMessage", Tags: []string{"safeForWork", "popCulture"}},
	{Text: "selling stuff on Facebook Marketplace", Tags: []string{"safeForWork", "popCulture"}},
	{Text: "first world problems", Tags: []string{"safeForWork", "popCulture"}},
	{Text: "when the good guys win", Tags: []string{"safeForWork", "popCulture"}},
	{Text: "an awkward first date", Tags: []string{"safeForWork", "romantic"}},
	{Text: "great first kiss with your crush", Tags: []string{"safeForWork", "romantic"}},
	{Text: "people who take a long time to text back", Tags: []string{"safeForWork", "romantic"}},
	{Text: "meeting the family", Tags: []string{"safeForWork", "romantic"}},
	{Text: "being held", Tags: []string{"safeForWork", "romantic"}},
	{Text: "farting in front of your crush", Tags: []string{"safeForWork", "romantic"}},
	{Text: "nice hands", Tags: []string{"safeForWork", "romantic"}},
	{Text: "crazy chemistry", Tags: []string{"romantic"}},
	{Text: "obvious hickey", Tags: []string{"inappropriate", "romantic"}},
	{Text: "bathroom stall graffiti", Tags: []string{"safeForWork", "inappropriate"}},
	{Text: "your biggest vice", Tags: []string{"safeForWork", "inappropriate"}},
	{Text: "petty theft for thrills", Tags: []string{"safeForWork", "inappropriate"}},
	{Text: "peeing outside", Tags: []string{"safeForWork", "inappropriate"}},
	{Text: "CI fails again", Tags: []string{"baseAccount"}},
	{Text: "Meeting during no meeting week", Tags: []string{"baseAccount"}},
	{Text: "Demo gods are not in your favor", Tags: []string{"baseAccount"}},
	{Text: "Passkeys", Tags: []string{"baseAccount"}},
	{Text: "Reorg", Tags: []string{"baseAccount"}},
	{Text: "All day incident", Tags: []string{"baseAccount"}},
	{Text: "Shipping", Tags: []string{"baseAccount"}},
	{Text: "Warm beer", Tags: []string{"baseAccount"}},
	{Text: "Giving a presentation at the all hands", Tags: []string{"baseAccount"}},
	{Text: "\"Something went wrong\"", Tags: []string{"baseAccount"}},
	{Text: "Friday deploys", Tags: []string{"safeForWork", "baseAccount"}},
}

// DefaultCategories is used when a room is created without any selection.
var DefaultCategories = []string{"kidFriendly"}

// ValidCategory reports whether a category key exists in the catalog.
func ValidCategory(key string) bool {
	_, ok := CategoryNames[key]
	return ok
}

// PromptsByCategories returns the texts tagged with ANY of the selected
// categories (union), in catalog order, without duplicates.
func PromptsByCategories(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}
	selected := make(map[string]struct{}, len(categories))
	for _, key := range categories {
		selected[key] = struct{}{}
	}
	texts := make([]string, 0)
	for _, prompt := range Catalog {
		for _, tag := range prompt.Tags {
			if _, ok := selected[tag]; ok {
				texts = append(texts, prompt.Text)
				break
			}
		}
	}
	return texts
}

// CategoryCount reports how many catalog prompts carry the given tag.
func CategoryCount(key string) int {
	count := 0
	for _, prompt := range Catalog {
		for _, tag := range prompt.Tags {
			if tag == key {
				count++
				break
			}
		}
	}
	return count
}

// SortedCategoryKeys returns the catalog's category keys in stable order.
func SortedCategoryKeys() []string {
	keys := make([]string, 0, len(CategoryNames))
	for key := range CategoryNames {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SamplePrompts draws up to n distinct prompts from pool, uniformly
// shuffled. It returns an error if the pool cannot cover n.
func SamplePrompts(rng *rand.Rand, pool []string, n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample size %d is negative", n)
	}
	if len(pool) < n {
		return nil, fmt.Errorf("prompt pool has %d entries, need %d", len(pool), n)
	}
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n], nil
}
