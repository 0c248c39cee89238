package dialog

import (
	"context"
	"sync"

	"academy-agent/internal/domain"
)

// fakeLeadStore is a stateful in-memory LeadStore shared by the dialog
// tests. Error fields inject failures per operation.
type fakeLeadStore struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	history  map[string][]domain.ChatMessage

	statsErr   error
	incErr     error
	upsertErr  error
	historyErr error
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		profiles: make(map[string]*domain.Profile),
		history:  make(map[string][]domain.ChatMessage),
	}
}

func (f *fakeLeadStore) profile(email string) *domain.Profile {
	p, ok := f.profiles[email]
	if !ok {
		p = &domain.Profile{Email: email}
		f.profiles[email] = p
	}
	return p
}

func (f *fakeLeadStore) GetStats(_ context.Context, email string) (domain.ProfileStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return domain.ProfileStats{}, f.statsErr
	}
	p, ok := f.profiles[email]
	if !ok {
		return domain.ProfileStats{}, nil
	}
	return domain.ProfileStats{
		Registered:   p.Registered,
		GuestCount:   p.GuestCount,
		PostRegCount: p.PostRegCount,
	}, nil
}

func (f *fakeLeadStore) IncrementCounter(_ context.Context, email string, registered bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return f.incErr
	}
	p := f.profile(email)
	if registered {
		p.PostRegCount++
	} else {
		p.GuestCount++
	}
	return nil
}

func (f *fakeLeadStore) UpsertLead(_ context.Context, update domain.LeadUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	p := f.profile(update.Email)
	if update.Name != "" {
		p.Name = update.Name
	}
	if update.School != "" {
		p.School = update.School
	}
	if update.City != "" {
		p.City = update.City
	}
	if update.Phone != "" {
		p.Phone = update.Phone
	}
	if update.MarkRegistered {
		p.Registered = true
	}
	return nil
}

func (f *fakeLeadStore) AppendHistory(_ context.Context, email, role, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return f.historyErr
	}
	f.history[email] = append(f.history[email], domain.ChatMessage{Role: role, Text: text})
	return nil
}

type fakeRetriever struct {
	passages []string
	err      error
	queries  []string
}

func (f *fakeRetriever) Search(_ context.Context, query string, _ int) ([]string, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

// fakeGenerator replays a scripted sequence of results, one per attempt.
type fakeGenerator struct {
	script []generation
	calls  int
}

type generation struct {
	segments []domain.Segment
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ []domain.ChatMessage) ([]domain.Segment, error) {
	i := f.calls
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	f.calls++
	g := f.script[i]
	return g.segments, g.err
}

func textSegments(texts ...string) []domain.Segment {
	out := make([]domain.Segment, 0, len(texts))
	for _, t := range texts {
		out = append(out, domain.Segment{Kind: domain.SegmentText, Text: t})
	}
	return out
}

// limitedErr is a generator failure carrying rate-limit classification.
type limitedErr struct {
	limited bool
	msg     string
}

func (e *limitedErr) Error() string     { return e.msg }
func (e *limitedErr) RateLimited() bool { return e.limited }
