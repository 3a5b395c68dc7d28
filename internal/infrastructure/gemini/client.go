// Package gemini generates dietary appraisals of products with the
// Gemini generateContent API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tumeware/SnackBar/internal/domain"
	"github.com/tumeware/SnackBar/internal/infrastructure/fetch"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-2.5-flash"

	temperature       = 0.6
	finishMaxTokens   = "MAX_TOKENS"
	maxRawExcerpt     = 300
	defaultOutputSize = 3072
)

// Fetcher is the single-call transport the client relies on
type Fetcher interface {
	Fetch(ctx context.Context, request fetch.Request, timeout time.Duration, out interface{}) error
}

// Config holds the settings of the insight client
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
}

// RequestError reports a failed or unusable model response.
// It unwraps to the transport error when there is one.
type RequestError struct {
	Model   string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s (model: %s)", e.Message, e.Model)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is lets callers match any RequestError with domain.ErrInsightFailed
func (e *RequestError) Is(target error) bool {
	return target == domain.ErrInsightFailed
}

// Client implements domain.InsightGenerator
type Client struct {
	fetcher  Fetcher
	config   Config
	endpoint string
	logger   zerolog.Logger
}

// NewClient creates a new insight client. A missing API key is allowed;
// every call then fails with domain.ErrInsightUnavailable.
func NewClient(fetcher Fetcher, config Config, logger zerolog.Logger) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = defaultOutputSize
	}
	if config.Timeout <= 0 {
		config.Timeout = fetch.DefaultTimeout
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(config.BaseURL, "/"), url.PathEscape(config.Model))

	return &Client{
		fetcher:  fetcher,
		config:   config,
		endpoint: endpoint,
		logger:   logger.With().Str("component", "gemini").Str("model", config.Model).Logger(),
	}
}

// Available reports whether an API key is configured
func (c *Client) Available() bool {
	return c.config.APIKey != ""
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// GenerateInsight asks the model for an appraisal of product
func (c *Client) GenerateInsight(ctx context.Context, product domain.Product) (string, error) {
	if !c.Available() {
		return "", domain.ErrInsightUnavailable
	}

	body := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: BuildPrompt(product)}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: c.config.MaxOutputTokens,
		},
	}

	request := fetch.Request{
		Method: http.MethodPost,
		URL:    c.endpoint + "?key=" + url.QueryEscape(c.config.APIKey),
		Body:   body,
	}

	var raw json.RawMessage
	if err := c.fetcher.Fetch(ctx, request, c.config.Timeout, &raw); err != nil {
		c.logger.Warn().Err(err).Str("code", product.Code).Msg("insight request failed")
		return "", &RequestError{Model: c.config.Model, Message: err.Error(), Err: err}
	}

	var response generateResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return "", &RequestError{
			Model:   c.config.Model,
			Message: "Unexpected response from AI model.",
			Err:     fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err),
		}
	}

	text, finishReason := candidateText(response)
	if text == "" {
		reason := "Empty response from AI model."
		if finishReason == finishMaxTokens {
			reason = "AI cut off response (max tokens)."
		}
		c.logger.Warn().Str("code", product.Code).Str("finish_reason", finishReason).Msg("insight response had no text")
		return "", &RequestError{
			Model:   c.config.Model,
			Message: fmt.Sprintf("%s Raw: %s", reason, domain.Excerpt(string(raw), maxRawExcerpt)),
		}
	}

	return text, nil
}

// candidateText joins the non-blank parts of the first candidate
func candidateText(response generateResponse) (string, string) {
	if len(response.Candidates) == 0 {
		return "", ""
	}

	candidate := response.Candidates[0]
	texts := make([]string, 0, len(candidate.Content.Parts))
	for _, p := range candidate.Content.Parts {
		if trimmed := strings.TrimSpace(p.Text); trimmed != "" {
			texts = append(texts, trimmed)
		}
	}
	return strings.Join(texts, "\n\n"), candidate.FinishReason
}
