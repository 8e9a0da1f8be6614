package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClient_Search posts the query and decodes a well-formed response.
func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var q Query
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "goroutine leaks", q.Query)
		assert.Equal(t, "operating systems", q.Subject)
		assert.Equal(t, 3, q.TopK)

		json.NewEncoder(w).Encode(map[string]any{
			"query":         q.Query,
			"total_results": 1,
			"results": []map[string]any{{
				"content":  "A goroutine leak happens when...",
				"metadata": map[string]any{"source": "notes.pdf", "page": 4.0},
				"score":    0.91,
			}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Search(context.Background(), Query{
		Query:   "goroutine leaks",
		Subject: "operating systems",
		TopK:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, "goroutine leaks", resp.Query)
	assert.Equal(t, 1, resp.TotalResults)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "A goroutine leak happens when...", resp.Results[0].Content)
	assert.Equal(t, "notes.pdf", resp.Results[0].Metadata["source"])
	assert.InDelta(t, 0.91, resp.Results[0].Score, 0.001)
}

// TestClient_Search_Aliases normalizes the field names different vector
// stores use.
func TestClient_Search_Aliases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"text": "from text field", "meta": map[string]any{"k": "v"}, "similarity": 0.5},
				{"snippet": "from snippet field", "distance": 0.2},
			},
		})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Search(context.Background(), Query{Query: "q"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "from text field", resp.Results[0].Content)
	assert.Equal(t, "v", resp.Results[0].Metadata["k"])
	assert.InDelta(t, 0.5, resp.Results[0].Score, 0.001)

	assert.Equal(t, "from snippet field", resp.Results[1].Content)
	assert.NotNil(t, resp.Results[1].Metadata)
	assert.InDelta(t, 0.2, resp.Results[1].Score, 0.001)

	// Missing total_results falls back to the result count; missing
	// query echoes the request.
	assert.Equal(t, 2, resp.TotalResults)
	assert.Equal(t, "q", resp.Query)
}

// TestClient_Search_ServiceError reports the status and a body snippet.
func TestClient_Search_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Search(context.Background(), Query{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service returned 500")
	assert.Contains(t, err.Error(), "index unavailable")
}

// TestClient_Search_Unreachable surfaces transport failures.
func TestClient_Search_Unreachable(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1").Search(context.Background(), Query{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contact service")
}

// TestClient_Search_BadJSON rejects undecodable bodies.
func TestClient_Search_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Search(context.Background(), Query{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
