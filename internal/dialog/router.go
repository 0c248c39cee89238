package dialog

import (
	"context"
	"errors"
	"log/slog"

	"academy-agent/internal/domain"
)

// Default question quotas. Both are configuration, not law: the short guest
// trial converts curiosity into a qualified lead, the longer post-
// registration trial sustains engagement before human follow-up.
const (
	DefaultGuestLimit   = 3
	DefaultPostRegLimit = 6
)

// StatsReader is the profile-counter read the router needs. A failed read
// must never block the conversation.
type StatsReader interface {
	GetStats(ctx context.Context, email string) (domain.ProfileStats, error)
}

// Limits holds the two quota thresholds.
type Limits struct {
	Guest   int
	PostReg int
}

// DefaultLimits returns the standard 3/6 funnel thresholds.
func DefaultLimits() Limits {
	return Limits{Guest: DefaultGuestLimit, PostReg: DefaultPostRegLimit}
}

// Router maps the current session state to exactly one turn step.
// Deterministic given identical session state and profile counters.
type Router struct {
	stats  StatsReader
	limits Limits
}

func NewRouter(stats StatsReader, limits Limits) (*Router, error) {
	if stats == nil {
		return nil, errors.New("dialog: stats reader must not be nil")
	}
	if limits.Guest <= 0 {
		limits.Guest = DefaultGuestLimit
	}
	if limits.PostReg <= 0 {
		limits.PostReg = DefaultPostRegLimit
	}
	return &Router{stats: stats, limits: limits}, nil
}

// Route applies the decision ladder, first match wins:
// terminated thread, missing email, in-flight detail collection, then the
// quota checks against the profile counters.
func (r *Router) Route(ctx context.Context, sess *domain.Session) Step {
	if sess.Mode == domain.ModeLimitReached {
		return StepLimitExhausted
	}
	if sess.Email == "" {
		return StepEmailCollection
	}
	if sess.Mode == domain.ModeCollectingDetails {
		return StepProcessDetails
	}

	stats, err := r.stats.GetStats(ctx, sess.Email)
	if err != nil {
		// Degrade to a fresh profile rather than blocking the turn.
		slog.Warn("router: stats read failed, assuming fresh profile",
			"thread_id", sess.ThreadID, "err", err)
		stats = domain.ProfileStats{}
	}

	if stats.Registered {
		if stats.PostRegCount >= r.limits.PostReg {
			return StepLimitExhausted
		}
		return StepAnswerGeneration
	}
	if stats.GuestCount >= r.limits.Guest {
		return StepCollectDetailsPrompt
	}
	return StepAnswerGeneration
}
