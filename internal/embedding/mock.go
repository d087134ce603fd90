package embedding

import (
	"context"
	"sync"
)

// MockProvider is a test double for embedding providers.
type MockProvider struct {
	Vector []float64
	Err    error

	mu       sync.Mutex
	calls    int
	lastText string
}

// NewMockProvider creates a MockProvider that returns the given vector.
func NewMockProvider(vector []float64) *MockProvider {
	return &MockProvider{Vector: vector}
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Embed(_ context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.calls++
	m.lastText = text
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return append([]float64(nil), m.Vector...), nil
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}

// Calls returns how many times Embed was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastText returns the text passed to the most recent Embed call.
func (m *MockProvider) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastText
}
