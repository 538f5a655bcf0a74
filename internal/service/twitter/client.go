package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/internal/domain/service"
	pkghttp "SentiPulse/pkg/http"
)

// MaxBatchSize caps how many mentions a single upstream call may request,
// independent of what the caller asked for.
const MaxBatchSize = 10

// Client implements MentionFetcher against the Twitter v2 recent search API.
type Client struct {
	http        *pkghttp.Client
	baseURL     string
	bearerToken string
}

// NewClient creates a Twitter mention fetcher.
func NewClient(baseURL, bearerToken string, timeout time.Duration) drepo.MentionFetcher {
	return &Client{
		http:        pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		baseURL:     baseURL,
		bearerToken: bearerToken,
	}
}

type tweetMetrics struct {
	LikeCount    int `json:"like_count"`
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
}

type tweet struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"created_at"`
	Metrics   tweetMetrics `json:"public_metrics"`
}

type searchResponse struct {
	Data []tweet `json:"data"`
}

// FetchBatch returns up to maxItems recent tweets matching query,
// most-recent-last. HTTP 429 maps to ErrRateLimited so callers can
// distinguish pacing refusals from generic failure.
func (c *Client) FetchBatch(ctx context.Context, query string, maxItems int) ([]*models.RawMention, error) {
	if maxItems <= 0 || maxItems > MaxBatchSize {
		maxItems = MaxBatchSize
	}

	resp, err := c.http.SendRequest(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/2/tweets/search/recent",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.bearerToken,
		},
		QueryParams: map[string][]string{
			"query":        {query + " -is:retweet lang:en"},
			"max_results":  {strconv.Itoa(maxItems)},
			"tweet.fields": {"created_at,public_metrics"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("twitter search: %w: %v", service.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("twitter search: %w", service.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twitter search: %w: status %d: %s", service.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("twitter search: decode: %w", err)
	}

	// The API returns newest first; reverse to most-recent-last.
	mentions := make([]*models.RawMention, 0, len(parsed.Data))
	for i := len(parsed.Data) - 1; i >= 0; i-- {
		t := parsed.Data[i]
		mentions = append(mentions, &models.RawMention{
			ID:        t.ID,
			Text:      t.Text,
			Source:    string(drepo.SourceTwitter),
			Likes:     t.Metrics.LikeCount,
			Retweets:  t.Metrics.RetweetCount,
			Replies:   t.Metrics.ReplyCount,
			CreatedAt: t.CreatedAt,
		})
	}
	return mentions, nil
}
