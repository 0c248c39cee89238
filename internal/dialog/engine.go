package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"academy-agent/internal/domain"
)

// Engine orchestrates one request: load session, merge the inbound message,
// route, run the selected handler, merge its delta, persist, reply.
// Turns on the same thread are serialized; distinct threads run concurrently.
type Engine struct {
	router   *Router
	store    SessionStore
	handlers map[Step]Handler

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(router *Router, store SessionStore, handlers map[Step]Handler) (*Engine, error) {
	if router == nil {
		return nil, errors.New("dialog: router must not be nil")
	}
	if store == nil {
		return nil, errors.New("dialog: session store must not be nil")
	}
	for _, step := range []Step{
		StepEmailCollection,
		StepCollectDetailsPrompt,
		StepProcessDetails,
		StepAnswerGeneration,
		StepLimitExhausted,
	} {
		if handlers[step] == nil {
			return nil, fmt.Errorf("dialog: missing handler for step %q", step)
		}
	}
	return &Engine{
		router:   router,
		store:    store,
		handlers: handlers,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Turn processes one inbound user message and returns the single outbound
// reply. An empty message is a valid (empty) utterance, not an error.
func (e *Engine) Turn(ctx context.Context, threadID, message string) (string, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return "", errors.New("dialog: thread id must not be empty")
	}

	lock := e.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	sess, found, err := e.store.Load(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("dialog: load session: %w", err)
	}
	if !found {
		sess = domain.NewSession(threadID)
	}
	sess.Append(domain.RoleUser, message)

	step := e.router.Route(ctx, &sess)
	delta, err := e.handlers[step].Handle(ctx, &sess)
	if err != nil {
		// The user always gets a natural-language reply, never an error.
		slog.Error("engine: handler failed", "thread_id", threadID, "step", step, "err", err)
		delta = Delta{Reply: msgUnexpectedError}
	}
	delta.Apply(&sess)

	if err := e.store.Save(ctx, sess); err != nil {
		// Non-fatal: the reply stands even if the checkpoint lags.
		slog.Warn("engine: session save failed", "thread_id", threadID, "err", err)
	}
	return delta.Reply, nil
}

func (e *Engine) threadLock(threadID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[threadID] = l
	}
	return l
}
