package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMockClient_FixedResponse always answers with the configured text.
func TestMockClient_FixedResponse(t *testing.T) {
	mock := NewMockClient("hello there")

	for i := 0; i < 3; i++ {
		resp, err := mock.Complete(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "hello there", resp.Content)
		assert.Equal(t, "stop", resp.FinishReason)
	}
	assert.Equal(t, 3, mock.CallCount())
}

// TestMockClient_SequentialResponses serves scripted responses in order
// and cycles when exhausted.
func TestMockClient_SequentialResponses(t *testing.T) {
	mock := NewMockClient("").WithResponses(Text("first"), Text("second"))

	resp, err := mock.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = mock.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	// Exhausted: cycles back to the first.
	resp, err = mock.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)
}

// TestMockClient_WithError fails every call with the given error.
func TestMockClient_WithError(t *testing.T) {
	boom := errors.New("rate limited")
	mock := NewMockClient("unused").WithError(boom)

	_, err := mock.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mock.CallCount())
}

// TestMockClient_RecordsCalls captures every request for inspection.
func TestMockClient_RecordsCalls(t *testing.T) {
	mock := NewMockClient("ok")

	_, err := mock.Complete(context.Background(), Request{
		System:   "be helpful",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	_, err = mock.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "again"}},
	})
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "be helpful", calls[0].System)

	last := mock.LastCall()
	require.NotNil(t, last)
	assert.Equal(t, "again", last.Messages[0].Content)
}

// TestMockClient_Reset clears history and restarts the script.
func TestMockClient_Reset(t *testing.T) {
	mock := NewMockClient("").WithResponses(Text("a"), Text("b"))

	_, err := mock.Complete(context.Background(), Request{})
	require.NoError(t, err)
	mock.Reset()

	assert.Equal(t, 0, mock.CallCount())
	assert.Nil(t, mock.LastCall())

	resp, err := mock.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Content)
}

// TestMockClient_WithCompleteFunc routes calls through a custom handler.
func TestMockClient_WithCompleteFunc(t *testing.T) {
	mock := NewMockClient("unused").WithCompleteFunc(
		func(ctx context.Context, req Request) (*Response, error) {
			return Text("echo: " + req.Messages[len(req.Messages)-1].Content), nil
		})

	resp, err := mock.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", resp.Content)
	assert.Equal(t, 1, mock.CallCount())
}

// TestMockClient_ToolCallIDs stamps unique IDs on scripted tool calls.
func TestMockClient_ToolCallIDs(t *testing.T) {
	mock := NewMockClient("").WithResponses(
		CallTool("web_search", `{"query":"go generics"}`),
		CallTool("web_search", `{"query":"go modules"}`),
	)

	resp, err := mock.Complete(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "web_search", resp.ToolCalls[0].Name)
	assert.Equal(t, "tool_calls", resp.FinishReason)

	resp, err = mock.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "call_2", resp.ToolCalls[0].ID)
}

// TestMockClient_NoResponses degrades to an empty completion.
func TestMockClient_NoResponses(t *testing.T) {
	mock := &MockClient{}

	resp, err := mock.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
}
