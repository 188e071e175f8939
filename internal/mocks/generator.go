package mocks

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/learnflex/learnflex-api/internal/generation"
)

// MockGenerator implements generation.Generator for testing.
//
// Without GenerateFn, Generate validates Responses[req.Kind] against the
// kind's schema, so fixtures must be realistic. Stream yields the same
// response in a single chunk.
type MockGenerator struct {
	GenerateFn func(ctx context.Context, req generation.Request) (*generation.Response, error)

	Responses map[generation.Kind]string
	Err       error

	mu       sync.Mutex
	requests []generation.Request
}

var _ generation.Generator = (*MockGenerator)(nil)

// Generate implements generation.Generator.
func (m *MockGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	raw, ok := m.Responses[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no fixture for %s", generation.ErrGenerationFailed, req.Kind)
	}
	if err := generation.ValidateResponse(req.Kind, []byte(raw)); err != nil {
		return nil, err
	}
	return &generation.Response{Kind: req.Kind, Raw: []byte(raw)}, nil
}

// Stream implements generation.Generator.
func (m *MockGenerator) Stream(ctx context.Context, req generation.Request) iter.Seq2[generation.Chunk, error] {
	return func(yield func(generation.Chunk, error) bool) {
		resp, err := m.Generate(ctx, req)
		if err != nil {
			yield(generation.Chunk{}, err)
			return
		}
		yield(generation.Chunk{Text: string(resp.Raw)}, nil)
	}
}

// Requests returns every request received, in call order.
func (m *MockGenerator) Requests() []generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Request(nil), m.requests...)
}
