package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockClient is a scriptable Client for tests. It serves a fixed list
// of responses in order, cycling when exhausted, and records every
// request it receives.
type MockClient struct {
	mu        sync.Mutex
	responses []*Response
	next      int
	err       error
	fn        func(ctx context.Context, req Request) (*Response, error)
	calls     []Request
	callIDs   int
}

// NewMockClient returns a mock that always answers with content.
func NewMockClient(content string) *MockClient {
	return &MockClient{responses: []*Response{Text(content)}}
}

// WithResponses replaces the scripted responses. They are served in
// order and cycle back to the first when exhausted.
func (m *MockClient) WithResponses(responses ...*Response) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	m.next = 0
	return m
}

// WithError makes every Complete call fail with err.
func (m *MockClient) WithError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithCompleteFunc installs a custom handler, overriding scripted
// responses.
func (m *MockClient) WithCompleteFunc(fn func(ctx context.Context, req Request) (*Response, error)) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	return m
}

// Text builds a plain assistant response.
func Text(content string) *Response {
	return &Response{Content: content, FinishReason: "stop"}
}

// CallTool builds a response requesting a single tool call. args must
// be valid JSON; pass "{}" for no arguments.
func CallTool(name, args string) *Response {
	return &Response{
		FinishReason: "tool_calls",
		ToolCalls: []ToolCall{{
			Name:      name,
			Arguments: json.RawMessage(args),
		}},
	}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)

	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return nil, err
	}
	if m.fn != nil {
		fn := m.fn
		m.mu.Unlock()
		return fn(ctx, req)
	}
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return Text(""), nil
	}

	resp := *m.responses[m.next%len(m.responses)]
	m.next++

	// Stamp unique IDs so tool results can reference their call.
	if len(resp.ToolCalls) > 0 {
		stamped := make([]ToolCall, len(resp.ToolCalls))
		copy(stamped, resp.ToolCalls)
		for i := range stamped {
			if stamped[i].ID == "" {
				m.callIDs++
				stamped[i].ID = fmt.Sprintf("call_%d", m.callIDs)
			}
		}
		resp.ToolCalls = stamped
	}
	m.mu.Unlock()
	return &resp, nil
}

// CallCount reports how many times Complete was called.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of every recorded request.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent request, or nil before any call.
func (m *MockClient) LastCall() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	req := m.calls[len(m.calls)-1]
	return &req
}

// Reset clears recorded calls and restarts the response sequence.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.next = 0
	m.callIDs = 0
}
