// Package gemini is a focused Gemini client for answer generation. It maps
// the model's multi-part responses into typed content segments and tags
// rate-limit rejections so the dialog layer can retry them.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"academy-agent/internal/domain"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// Error wraps a generation failure with rate-limit classification.
type Error struct {
	rateLimited bool
	err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gemini: %v", e.err)
}

func (e *Error) Unwrap() error { return e.err }

// RateLimited reports whether this failure is a transient quota rejection.
func (e *Error) RateLimited() bool { return e.rateLimited }

// Client generates answers via the Gemini API.
type Client struct {
	genai *genai.Client
	model string
}

// NewClient creates a Client for the given API key and model name.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{genai: gc, model: model}, nil
}

// Generate runs one completion with the system instruction and the bounded
// message window, returning typed content segments.
func (c *Client) Generate(ctx context.Context, instruction string, messages []domain.ChatMessage) ([]domain.Segment, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, toContents(messages), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
	})
	if err != nil {
		return nil, classify(err)
	}
	segments := segmentsFromResponse(resp)
	if len(segments) == 0 {
		return nil, &Error{err: errors.New("empty response")}
	}
	return segments, nil
}

func toContents(messages []domain.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role genai.Role = genai.RoleUser
		if m.Role == domain.RoleBot {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return contents
}

// segmentsFromResponse flattens the first candidate's parts into typed
// segments. Non-text parts are kept as data segments so callers can discard
// them explicitly; an unexpected shape yields no segments rather than a
// panic.
func segmentsFromResponse(resp *genai.GenerateContentResponse) []domain.Segment {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return nil
	}
	segments := make([]domain.Segment, 0, len(content.Parts))
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			segments = append(segments, domain.Segment{Kind: domain.SegmentText, Text: part.Text})
			continue
		}
		segments = append(segments, domain.Segment{Kind: domain.SegmentData})
	}
	return segments
}

// classify tags quota rejections (HTTP 429 / RESOURCE_EXHAUSTED) as
// rate-limited; everything else is a plain upstream failure.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		limited := apiErr.Code == 429 || strings.Contains(apiErr.Status, "RESOURCE_EXHAUSTED")
		return &Error{rateLimited: limited, err: err}
	}
	msg := err.Error()
	limited := strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
	return &Error{rateLimited: limited, err: err}
}
