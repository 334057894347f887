package llm

import (
	"context"
	"sync"
	"time"

	"shop-chat/internal/domain"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error
	Delay    time.Duration

	mu          sync.Mutex
	Calls       [][]domain.ContextFragment
	LastOptions CompletionOptions
}

func (m *MockClient) Complete(ctx context.Context, fragments []domain.ContextFragment, opts CompletionOptions) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, append([]domain.ContextFragment(nil), fragments...))
	m.LastOptions = opts
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.Response, m.Err
}

// LastCall devuelve los fragmentos de la ultima invocacion.
func (m *MockClient) LastCall() []domain.ContextFragment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return m.Calls[len(m.Calls)-1]
}
