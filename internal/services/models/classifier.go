package models

import (
	"context"
	"fmt"

	domsvc "SentiPulse/internal/domain/service"
	"SentiPulse/pkg/config"
)

// HTTPClassifier calls the sentiment classification model over HTTP. The raw
// response shape is model-dependent and resolved downstream by the
// normalizer.
type HTTPClassifier struct{ base *HTTPServiceBase }

func NewHTTPClassifier(cfg *config.Config) *HTTPClassifier {
	return &HTTPClassifier{base: NewHTTPServiceBase(cfg)}
}

type classifyReq struct {
	Text string `json:"text"`
}

func (c *HTTPClassifier) Analyze(ctx context.Context, text string) (map[string]any, error) {
	var raw map[string]any
	if err := c.base.PostJSON(ctx, "/sentiment/analyze", classifyReq{Text: text}, &raw); err != nil {
		return nil, fmt.Errorf("post classify: %w", err)
	}
	return raw, nil
}

var _ domsvc.Classifier = (*HTTPClassifier)(nil)
