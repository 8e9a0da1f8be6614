package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tutorgraph/tutorgraph/internal/rag"
)

// RAGSearch runs a semantic search against the external RAG service.
// The result is a JSON payload: {"ok": true, ...} with normalized
// results, or {"ok": false, "error": ...} when the service could not
// be reached. It never fails the turn.
type RAGSearch struct {
	client *rag.Client
	schema *jsonschema.Schema
}

// RAGSearchInput is the argument schema for the rag_search tool.
type RAGSearchInput struct {
	Query   string `json:"query" jsonschema_description:"Search query for the semantic index"`
	Subject string `json:"subject,omitempty" jsonschema_description:"Optional subject filter"`
	DocType string `json:"doc_type,omitempty" jsonschema_description:"Optional document type filter"`
	TopK    int    `json:"top_k,omitempty" jsonschema_description:"Maximum number of results to return"`
}

// ragResult is the wire shape of a successful search payload.
type ragResult struct {
	OK           bool         `json:"ok"`
	Query        string       `json:"query,omitempty"`
	TotalResults int          `json:"total_results,omitempty"`
	Results      []rag.Result `json:"results,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// NewRAGSearch builds the rag_search tool backed by client.
func NewRAGSearch(client *rag.Client) *RAGSearch {
	return &RAGSearch{client: client, schema: mustSchema[RAGSearchInput]()}
}

func (r *RAGSearch) Name() string { return "rag_search" }

func (r *RAGSearch) Description() string {
	return "Semantic search over the indexed course material. Returns ranked snippets with metadata."
}

func (r *RAGSearch) Schema() *jsonschema.Schema { return r.schema }

// Invoke implements Tool.
func (r *RAGSearch) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input RAGSearchInput
	if err := json.Unmarshal(args, &input); err != nil {
		return encodeRAGResult(ragResult{OK: false, Error: fmt.Sprintf("bad arguments: %v", err)}), nil
	}

	resp, err := r.client.Search(ctx, rag.Query{
		Query:   input.Query,
		Subject: input.Subject,
		DocType: input.DocType,
		TopK:    input.TopK,
	})
	if err != nil {
		return encodeRAGResult(ragResult{OK: false, Error: err.Error()}), nil
	}

	return encodeRAGResult(ragResult{
		OK:           true,
		Query:        resp.Query,
		TotalResults: resp.TotalResults,
		Results:      resp.Results,
	}), nil
}

func encodeRAGResult(result ragResult) string {
	data, err := json.Marshal(result)
	if err != nil {
		return `{"ok":false,"error":"encode result"}`
	}
	return string(data)
}
