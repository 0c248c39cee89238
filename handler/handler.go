// Package handler adapts API Gateway proxy events to the dialog engine.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"academy-agent/internal/dialog"
	"academy-agent/internal/domain"
)

const correlationHeader = "X-Correlation-Id"

// Conversationalist runs one dialog turn for a thread.
type Conversationalist interface {
	Turn(ctx context.Context, threadID, message string) (string, error)
}

// LeadLister returns all captured leads for the admin endpoint.
type LeadLister interface {
	ListLeads(ctx context.Context) ([]domain.Profile, error)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type leadsResponse struct {
	Leads []domain.Profile `json:"leads"`
	Count int              `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler is the Lambda entry point for the chat and leads endpoints.
type Handler struct {
	engine Conversationalist
	leads  LeadLister
}

func NewHandler(engine Conversationalist, leads LeadLister) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("handler: engine must not be nil")
	}
	if leads == nil {
		return nil, errors.New("handler: lead lister must not be nil")
	}
	return &Handler{engine: engine, leads: leads}, nil
}

// Handle dispatches one API Gateway event. POST runs a chat turn; GET on
// /leads lists captured leads.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)

	switch {
	case event.HTTPMethod == http.MethodPost:
		return h.handleChat(ctx, event, corrID), nil
	case event.HTTPMethod == http.MethodGet && strings.HasSuffix(event.Path, "/leads"):
		return h.handleLeads(ctx, corrID), nil
	default:
		return respond(http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed"}, corrID), nil
	}
}

func (h *Handler) handleChat(ctx context.Context, event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: "invalid_request"}, corrID)
	}

	// A fresh conversation starts whenever the client sends no session id.
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, err := h.engine.Turn(ctx, sessionID, req.Message)
	if err != nil {
		// The contract is a natural-language reply in all cases. Transient
		// quota pressure gets the retry wording, everything else the
		// generic apology.
		slog.Error("chat turn failed", "correlation_id", corrID, "session_id", sessionID, "err", err)
		reply = dialog.FallbackUnexpected
		if isRateLimited(err) {
			reply = dialog.FallbackHighTraffic
		}
	}
	return respond(http.StatusOK, chatResponse{Response: reply}, corrID)
}

func (h *Handler) handleLeads(ctx context.Context, corrID string) events.APIGatewayProxyResponse {
	leads, err := h.leads.ListLeads(ctx)
	if err != nil {
		slog.Error("lead listing failed", "correlation_id", corrID, "err", err)
		return respond(http.StatusInternalServerError, errorResponse{Error: "internal_error"}, corrID)
	}
	return respond(http.StatusOK, leadsResponse{Leads: leads, Count: len(leads)}, corrID)
}

type rateLimiter interface {
	RateLimited() bool
}

func isRateLimited(err error) bool {
	var rl rateLimiter
	if errors.As(err, &rl) {
		return rl.RateLimited()
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// correlationID reuses the caller's header when present (header lookup is
// case-insensitive) and mints one otherwise.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func respond(status int, body any, corrID string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		slog.Error("response encoding failed", "correlation_id", corrID, "err", err)
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"internal_error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(raw),
	}
}
