package sentiment

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"SentiPulse/internal/domain/models"
)

// MalformedScoreError reports raw classifier output from which no sentiment
// component could be resolved. Raised only on the strict ingestion path.
type MalformedScoreError struct {
	Keys []string // keys seen in the raw payload
}

func (e *MalformedScoreError) Error() string {
	return fmt.Sprintf("malformed classifier score: no resolvable component in keys [%s]", strings.Join(e.Keys, " "))
}

// component lookup aliases, tried in order: full key first, then
// abbreviations, then the nested "scores" object.
var componentAliases = map[string][]string{
	"positive": {"positive", "pos"},
	"negative": {"negative", "neg"},
	"neutral":  {"neutral", "neu", "neut"},
}

// Normalizer converts raw classifier output of arbitrary shape into a
// canonical SentimentScore.
type Normalizer struct {
	rnd *rand.Rand
}

// NewNormalizer creates a normalizer. rnd seeds placeholder values on the
// lenient path; pass nil to use an unseeded source.
func NewNormalizer(rnd *rand.Rand) *Normalizer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Normalizer{rnd: rnd}
}

// Normalize resolves the three components from raw and rescales them to sum
// to 100. Strict: if no component resolves (or all resolve to zero), it
// returns *MalformedScoreError. Used for every persisted record.
func (n *Normalizer) Normalize(raw map[string]any) (models.SentimentScore, error) {
	score, resolved := resolve(raw)
	if resolved == 0 || score.Sum() <= 0 {
		return models.SentimentScore{}, &MalformedScoreError{Keys: sortedKeys(raw)}
	}
	return rescale(score), nil
}

// NormalizeLenient resolves what it can and fills unresolved components with
// placeholder values. Only for demo and synthetic data, never for persisted
// records.
func (n *Normalizer) NormalizeLenient(raw map[string]any) models.SentimentScore {
	score, _ := resolve(raw)
	if _, ok := resolveComponent(raw, "positive"); !ok {
		score.Positive = 20 + n.rnd.Float64()*40
	}
	if _, ok := resolveComponent(raw, "negative"); !ok {
		score.Negative = 10 + n.rnd.Float64()*30
	}
	if _, ok := resolveComponent(raw, "neutral"); !ok {
		score.Neutral = 10 + n.rnd.Float64()*30
	}
	if score.Sum() <= 0 {
		return models.SentimentScore{Positive: 34, Negative: 33, Neutral: 33}
	}
	return rescale(score)
}

// SyntheticScore produces a plausible randomized canonical score for the
// fallback path.
func (n *Normalizer) SyntheticScore() models.SentimentScore {
	return n.NormalizeLenient(map[string]any{})
}

// Confidence resolves record confidence from the raw payload when present,
// otherwise derives it from the score spread as max(score)/100.
func Confidence(raw map[string]any, score models.SentimentScore) float64 {
	if v, ok := asFloat(raw["confidence"]); ok {
		return clamp(v, 0, 1)
	}
	return clamp(score.Max()/100, 0, 1)
}

func resolve(raw map[string]any) (models.SentimentScore, int) {
	var score models.SentimentScore
	resolved := 0
	if v, ok := resolveComponent(raw, "positive"); ok {
		score.Positive = v
		resolved++
	}
	if v, ok := resolveComponent(raw, "negative"); ok {
		score.Negative = v
		resolved++
	}
	if v, ok := resolveComponent(raw, "neutral"); ok {
		score.Neutral = v
		resolved++
	}
	return score, resolved
}

// resolveComponent tries each lookup strategy in priority order: the full
// key, its abbreviations, then the nested "scores" object with the same
// alias order.
func resolveComponent(raw map[string]any, component string) (float64, bool) {
	for _, alias := range componentAliases[component] {
		if v, ok := asFloat(raw[alias]); ok {
			return v, true
		}
	}
	if nested, ok := raw["scores"].(map[string]any); ok {
		for _, alias := range componentAliases[component] {
			if v, ok := asFloat(nested[alias]); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// rescale scales the components proportionally so they sum to 100, then
// clamps each to [0,100]. Proportional scaling is a documented policy
// choice for inputs that do not already sum to 100.
func rescale(s models.SentimentScore) models.SentimentScore {
	sum := s.Sum()
	if sum <= 0 {
		return models.SentimentScore{}
	}
	factor := 100 / sum
	return models.SentimentScore{
		Positive: clamp(s.Positive*factor, 0, 100),
		Negative: clamp(s.Negative*factor, 0, 100),
		Neutral:  clamp(s.Neutral*factor, 0, 100),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortedKeys(raw map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
