package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SentimentScore is the canonical sentiment distribution. The three
// components are percentages in [0,100] and sum to 100 within a 0.5
// rounding tolerance.
type SentimentScore struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Sum returns the total of the three components.
func (s SentimentScore) Sum() float64 { return s.Positive + s.Negative + s.Neutral }

// Max returns the largest component value.
func (s SentimentScore) Max() float64 {
	m := s.Positive
	if s.Neutral > m {
		m = s.Neutral
	}
	if s.Negative > m {
		m = s.Negative
	}
	return m
}

// Dominant returns the label of the maximum component.
// Ties break positive > neutral > negative.
func (s SentimentScore) Dominant() string {
	switch {
	case s.Positive >= s.Neutral && s.Positive >= s.Negative:
		return "positive"
	case s.Neutral >= s.Negative:
		return "neutral"
	default:
		return "negative"
	}
}

// SentimentRecord is one classified text item. Immutable once persisted.
type SentimentRecord struct {
	ID              string         `json:"id"`
	Source          string         `json:"source"`
	TextFingerprint string         `json:"text_fingerprint"`
	Score           SentimentScore `json:"score"`
	Dominant        string         `json:"dominant"`
	Confidence      float64        `json:"confidence"` // [0,1]
	Synthetic       bool           `json:"synthetic,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// RawMention is one upstream item before classification.
type RawMention struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Likes     int       `json:"likes"`
	Retweets  int       `json:"retweets"`
	Replies   int       `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// Fingerprint returns the sha256 hex digest of text. Records carry the
// fingerprint instead of the raw text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// BatchAnalysis is the result of analyzing a batch of texts. Items that
// fail classification are counted, not returned.
type BatchAnalysis struct {
	Total   int                `json:"total"`
	Failed  int                `json:"failed"`
	Results []*SentimentRecord `json:"results"`
	Summary BatchSummary       `json:"summary"`
}

// BatchSummary counts dominant labels across a batch.
type BatchSummary struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}
