// Package problems serves the built-in exercise bank: static
// instant-translation problems and the listening questions used when the
// trivia upstream is unavailable.
package problems

import (
	_ "embed"
	"math/rand"

	"github.com/goccy/go-yaml"

	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

//go:embed problems.yml
var bankYAML []byte

type bank struct {
	Translation []types.TranslationProblem `yaml:"translation"`
	Listening   []types.ListeningProblem   `yaml:"listening"`
}

// Library picks exercises from the embedded bank.
type Library struct {
	translation []types.TranslationProblem
	listening   []types.ListeningProblem
}

// Load parses the embedded bank. Fails only if the embedded file is broken,
// which a test catches at build time.
func Load() (*Library, error) {
	var b bank
	if err := yaml.Unmarshal(bankYAML, &b); err != nil {
		return nil, types.Err(types.ErrBadResponse, err, "parse problem bank")
	}
	return &Library{translation: b.Translation, listening: b.Listening}, nil
}

// Eiken grades mapped onto bank difficulties. A grade beats an explicit
// difficulty filter when both are present.
var eikenToDifficulty = map[string]string{
	"5":     "easy",
	"4":     "easy",
	"3":     "medium",
	"pre-2": "medium",
	"2":     "medium",
	"pre-1": "hard",
	"1":     "hard",
}

// Difficulty names the frontend sends, mapped onto bank difficulties.
var difficultyAliases = map[string]string{
	"basic":        "easy",
	"intermediate": "medium",
	"advanced":     "hard",
}

// Frontend category names cover several bank categories each.
var categoryAliases = map[string][]string{
	"daily_life":  {"daily_life", "daily_routine", "preferences"},
	"work":        {"business", "work"},
	"travel":      {"travel", "transportation"},
	"education":   {"learning", "education"},
	"technology":  {"technology"},
	"health":      {"health"},
	"culture":     {"general"},
	"environment": {"general"},
}

// FallbackTranslation is returned when the bank has nothing usable at all.
var FallbackTranslation = types.TranslationProblem{
	Japanese:   "私は毎日英語を勉強しています。",
	English:    "I study English every day.",
	Difficulty: "easy",
	Category:   "daily_life",
}

// PickTranslation returns a random problem matching the filters. "all"
// disables a filter; filters that match nothing fall back to the whole bank.
func (l *Library) PickTranslation(difficulty, category, eikenLevel string) types.TranslationProblem {
	target := "all"
	if d, ok := eikenToDifficulty[eikenLevel]; ok {
		target = d
	} else if difficulty != "all" && difficulty != "" {
		target = difficultyAliases[difficulty]
		if target == "" {
			target = "medium"
		}
	}

	filtered := l.translation
	if target != "all" {
		filtered = filterTranslation(filtered, func(p types.TranslationProblem) bool {
			return p.Difficulty == target
		})
	}
	if category != "all" && category != "" {
		wanted, ok := categoryAliases[category]
		if !ok {
			wanted = []string{category}
		}
		filtered = filterTranslation(filtered, func(p types.TranslationProblem) bool {
			for _, c := range wanted {
				if p.Category == c {
					return true
				}
			}
			return false
		})
	}
	if len(filtered) == 0 {
		filtered = l.translation
	}
	if len(filtered) == 0 {
		return FallbackTranslation
	}
	return filtered[rand.Intn(len(filtered))]
}

// PickListening returns a random fallback question at the given difficulty,
// or from the whole fallback set when none matches. The explanation marks it
// as served locally.
func (l *Library) PickListening(difficulty string) types.ListeningProblem {
	suitable := make([]types.ListeningProblem, 0, len(l.listening))
	for _, p := range l.listening {
		if p.Difficulty == difficulty {
			suitable = append(suitable, p)
		}
	}
	if len(suitable) == 0 {
		suitable = l.listening
	}
	p := suitable[rand.Intn(len(suitable))]
	p.Explanation = "This is a fallback question due to external API issues."
	return p
}

func filterTranslation(in []types.TranslationProblem, keep func(types.TranslationProblem) bool) []types.TranslationProblem {
	out := make([]types.TranslationProblem, 0, len(in))
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
