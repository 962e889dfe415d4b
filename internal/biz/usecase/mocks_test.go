package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
)

// Mock implementations

type mockConversationRepo struct {
	mu      sync.Mutex
	records map[string][]*domain.ResponseRecord
	lastErr error
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{records: make(map[string][]*domain.ResponseRecord)}
}

func (m *mockConversationRepo) Last(ctx context.Context, scope string) (*domain.ResponseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	recs := m.records[scope]
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[len(recs)-1], nil
}

func (m *mockConversationRepo) Append(ctx context.Context, rec *domain.ResponseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Scope] = append(m.records[rec.Scope], rec)
	return nil
}

func (m *mockConversationRepo) Count(ctx context.Context, scope string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[scope]), nil
}

func (m *mockConversationRepo) History(ctx context.Context, scope string) ([]*domain.ResponseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ResponseRecord(nil), m.records[scope]...), nil
}

func (m *mockConversationRepo) Reset(ctx context.Context, scope string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records[scope])
	delete(m.records, scope)
	return int64(n), nil
}

func (m *mockConversationRepo) ListScopes(ctx context.Context) ([]*domain.ScopeSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ScopeSummary
	for scope, recs := range m.records {
		last := recs[len(recs)-1]
		out = append(out, &domain.ScopeSummary{
			Scope:          scope,
			Turns:          len(recs),
			LastResponseID: last.ResponseID,
			UpdatedAt:      last.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope < out[j].Scope })
	return out, nil
}

func (m *mockConversationRepo) Close() error {
	return nil
}

// mockCompletionRepo returns r1, r2, ... in call order
type mockCompletionRepo struct {
	mu       sync.Mutex
	requests []domain.CompletionRequest
	err      error

	// When set, each call blocks until a value is received
	gate    chan struct{}
	entered chan struct{}
}

func (m *mockCompletionRepo) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.Completion, error) {
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	n := len(m.requests)
	err := m.err
	m.mu.Unlock()

	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	return &domain.Completion{
		ResponseID: fmt.Sprintf("r%d", n),
		OutputText: fmt.Sprintf("reply to %s", req.Input),
	}, nil
}

func (m *mockCompletionRepo) calls() []domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CompletionRequest(nil), m.requests...)
}

type mockToolRepo struct {
	token string
	err   error
}

func (m *mockToolRepo) Descriptor(ctx context.Context) (*domain.ToolGateway, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ToolGateway{
		Label:           "google_docs",
		ServerURL:       "https://remote.mcp.pipedream.net",
		Headers:         map[string]string{"Authorization": "Bearer " + m.token},
		RequireApproval: domain.ApprovalNever,
	}, nil
}

func (m *mockToolRepo) ListTools(ctx context.Context) ([]domain.ToolInfo, error) {
	return nil, errors.New("not implemented")
}

type mockMessageRepo struct {
	latency time.Duration
}

func (m *mockMessageRepo) Reply(ctx context.Context, msg *domain.IncomingMessage, text string) error {
	return nil
}

func (m *mockMessageRepo) SendTyping(ctx context.Context, channelID string) error {
	return nil
}

func (m *mockMessageRepo) Latency() time.Duration {
	return m.latency
}
