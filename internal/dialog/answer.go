package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"academy-agent/internal/domain"
)

// AnswerConfig tunes the RAG turn. The restart heuristic (MinNewQuestionWords
// and TriggerWords) is an approximate, language-specific policy and is kept
// configurable on purpose.
type AnswerConfig struct {
	TopK                int
	MaxAttempts         int
	Backoff             time.Duration
	MinNewQuestionWords int
	TriggerWords        []string
}

// DefaultAnswerConfig mirrors the production tuning: top-4 retrieval, three
// generation attempts with a 2s pause between rate-limited ones.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		TopK:                4,
		MaxAttempts:         3,
		Backoff:             2 * time.Second,
		MinNewQuestionWords: 5,
		TriggerWords:        []string{"previous", "answer", "what", "that"},
	}
}

// rateLimiter is implemented by generator errors that represent a transient
// quota/rate-limit rejection.
type rateLimiter interface {
	RateLimited() bool
}

// AnswerHandler runs one retrieval-augmented answer turn.
type AnswerHandler struct {
	leads     LeadStore
	retriever Retriever
	generator Generator
	persona   string
	cfg       AnswerConfig

	sleep func(time.Duration)
}

func NewAnswerHandler(leads LeadStore, retriever Retriever, generator Generator, persona string, cfg AnswerConfig) (*AnswerHandler, error) {
	if leads == nil {
		return nil, errors.New("dialog: lead store must not be nil")
	}
	if retriever == nil {
		return nil, errors.New("dialog: retriever must not be nil")
	}
	if generator == nil {
		return nil, errors.New("dialog: generator must not be nil")
	}
	def := DefaultAnswerConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.MinNewQuestionWords <= 0 {
		cfg.MinNewQuestionWords = def.MinNewQuestionWords
	}
	if cfg.TriggerWords == nil {
		cfg.TriggerWords = def.TriggerWords
	}
	return &AnswerHandler{
		leads:     leads,
		retriever: retriever,
		generator: generator,
		persona:   persona,
		cfg:       cfg,
		sleep:     time.Sleep,
	}, nil
}

func (h *AnswerHandler) Handle(ctx context.Context, sess *domain.Session) (Delta, error) {
	userQ := sess.LastUserText()
	appendHistory(ctx, h.leads, sess.Email, domain.RoleUser, userQ)

	// Counting is best-effort: a stats hiccup must never eat the turn.
	registered := false
	if stats, err := h.leads.GetStats(ctx, sess.Email); err == nil {
		registered = stats.Registered
	} else {
		slog.Warn("answer: stats read failed", "email", sess.Email, "err", err)
	}
	if err := h.leads.IncrementCounter(ctx, sess.Email, registered); err != nil {
		slog.Warn("answer: counter increment failed", "email", sess.Email, "err", err)
	}

	question := h.effectiveQuestion(userQ, sess.PendingQuestion)

	passages, err := h.retriever.Search(ctx, question, h.cfg.TopK)
	if err != nil {
		// Degrade to an empty context; the generator can still answer
		// generic aviation questions.
		slog.Warn("answer: retrieval failed, continuing without context",
			"thread_id", sess.ThreadID, "err", err)
		passages = nil
	}
	instruction := buildInstruction(h.persona, passages)

	reply := h.generate(ctx, instruction, question)
	appendHistory(ctx, h.leads, sess.Email, domain.RoleBot, reply)

	return Delta{Reply: reply, PendingQuestion: strPtr("")}, nil
}

// generate invokes the model with bounded retries. Only rate-limit rejections
// are retried (with a fixed pause); any other failure, or exhaustion, falls
// back to the static high-traffic reply.
func (h *AnswerHandler) generate(ctx context.Context, instruction, question string) string {
	messages := []domain.ChatMessage{{Role: domain.RoleUser, Text: question}}

	for attempt := 1; attempt <= h.cfg.MaxAttempts; attempt++ {
		segments, err := h.generator.Generate(ctx, instruction, messages)
		if err == nil {
			if text := domain.FlattenText(segments); text != "" {
				return text
			}
			slog.Warn("answer: generator returned no text segments")
			return msgUnexpectedError
		}
		if !isRateLimited(err) {
			slog.Error("answer: generation failed", "attempt", attempt, "err", err)
			return msgHighTraffic
		}
		slog.Warn("answer: generator rate limited", "attempt", attempt, "err", err)
		if attempt < h.cfg.MaxAttempts {
			h.sleep(h.cfg.Backoff)
		}
	}
	return msgHighTraffic
}

// effectiveQuestion restores the pre-interruption question when the inbound
// message looks like a vague follow-up ("what?", "answer that"), and keeps
// the fresh question otherwise.
func (h *AnswerHandler) effectiveQuestion(userQ, pending string) string {
	if pending == "" {
		return userQ
	}
	words := strings.Fields(strings.ToLower(userQ))
	if len(words) < h.cfg.MinNewQuestionWords {
		return pending
	}
	for _, w := range words {
		for _, trigger := range h.cfg.TriggerWords {
			if strings.Trim(w, ".,!?") == trigger {
				return pending
			}
		}
	}
	return userQ
}

func isRateLimited(err error) bool {
	var rl rateLimiter
	if errors.As(err, &rl) && rl.RateLimited() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
