package sentiment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPulse/internal/domain/models"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(rand.New(rand.NewSource(1)))
}

func assertCanonical(t *testing.T, s models.SentimentScore) {
	t.Helper()
	assert.InDelta(t, 100, s.Sum(), 0.5)
	for _, v := range []float64{s.Positive, s.Negative, s.Neutral} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestNormalizeResolutionOrder(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		raw  map[string]any
		want models.SentimentScore
	}{
		{
			name: "full keys",
			raw:  map[string]any{"positive": 60.0, "negative": 25.0, "neutral": 15.0},
			want: models.SentimentScore{Positive: 60, Negative: 25, Neutral: 15},
		},
		{
			name: "abbreviated keys",
			raw:  map[string]any{"pos": 50.0, "neg": 30.0, "neu": 20.0},
			want: models.SentimentScore{Positive: 50, Negative: 30, Neutral: 20},
		},
		{
			name: "nested scores object",
			raw:  map[string]any{"scores": map[string]any{"positive": 40.0, "negative": 40.0, "neutral": 20.0}},
			want: models.SentimentScore{Positive: 40, Negative: 40, Neutral: 20},
		},
		{
			name: "full key wins over nested",
			raw: map[string]any{
				"positive": 80.0,
				"scores":   map[string]any{"positive": 10.0, "negative": 10.0, "neutral": 10.0},
			},
			want: models.SentimentScore{Positive: 80, Negative: 10, Neutral: 10},
		},
		{
			name: "integer values accepted",
			raw:  map[string]any{"positive": 70, "negative": 20, "neutral": 10},
			want: models.SentimentScore{Positive: 70, Negative: 20, Neutral: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Positive, got.Positive, 0.01)
			assert.InDelta(t, tt.want.Negative, got.Negative, 0.01)
			assert.InDelta(t, tt.want.Neutral, got.Neutral, 0.01)
			assertCanonical(t, got)
		})
	}
}

func TestNormalizeRescalesToHundred(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"probabilities", map[string]any{"positive": 0.6, "negative": 0.25, "neutral": 0.15}},
		{"oversum", map[string]any{"positive": 120.0, "negative": 60.0, "neutral": 20.0}},
		{"partial resolvable", map[string]any{"pos": 80.0, "neg": 10.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			require.NoError(t, err)
			assertCanonical(t, got)
		})
	}
}

func TestNormalizePartialKeepsProportions(t *testing.T) {
	n := newTestNormalizer()

	// Missing neutral resolves to 0 and the rest rescale proportionally.
	got, err := n.Normalize(map[string]any{"pos": 80.0, "neg": 10.0})
	require.NoError(t, err)
	assert.InDelta(t, 88.89, got.Positive, 0.01)
	assert.InDelta(t, 11.11, got.Negative, 0.01)
	assert.InDelta(t, 0, got.Neutral, 0.01)
}

func TestNormalizeMalformed(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"empty payload", map[string]any{}},
		{"unrelated keys", map[string]any{"label": "POSITIVE", "value": "high"}},
		{"non numeric components", map[string]any{"positive": "60", "negative": "25"}},
		{"all zero", map[string]any{"positive": 0.0, "negative": 0.0, "neutral": 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.raw)
			var malformed *MalformedScoreError
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestNormalizeMalformedCarriesKeys(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(map[string]any{"b": "x", "a": "y"})
	var malformed *MalformedScoreError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, []string{"a", "b"}, malformed.Keys)
}

func TestNormalizeLenientFillsPlaceholders(t *testing.T) {
	n := newTestNormalizer()

	got := n.NormalizeLenient(map[string]any{"pos": 80.0, "neg": 10.0})
	assertCanonical(t, got)
	assert.Greater(t, got.Neutral, 0.0)

	// Fully empty payloads still yield a canonical score.
	assertCanonical(t, n.NormalizeLenient(map[string]any{}))
}

func TestSyntheticScoreCanonical(t *testing.T) {
	n := newTestNormalizer()
	for i := 0; i < 50; i++ {
		assertCanonical(t, n.SyntheticScore())
	}
}

func TestDominantTieBreak(t *testing.T) {
	tests := []struct {
		name  string
		score models.SentimentScore
		want  string
	}{
		{"positive max", models.SentimentScore{Positive: 60, Negative: 20, Neutral: 20}, "positive"},
		{"negative max", models.SentimentScore{Positive: 10, Negative: 70, Neutral: 20}, "negative"},
		{"neutral max", models.SentimentScore{Positive: 20, Negative: 20, Neutral: 60}, "neutral"},
		{"three way tie prefers positive", models.SentimentScore{Positive: 33.3, Negative: 33.3, Neutral: 33.3}, "positive"},
		{"neutral negative tie prefers neutral", models.SentimentScore{Positive: 10, Negative: 45, Neutral: 45}, "neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.score.Dominant())
		})
	}
}
