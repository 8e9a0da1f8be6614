// Package rag talks to the external semantic-search service. The
// service wraps a vector index; this client only knows its HTTP shape.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Query is a search request. Subject and DocType are optional filters;
// TopK limits the number of results (service default when zero).
type Query struct {
	Query   string `json:"query"`
	Subject string `json:"subject,omitempty"`
	DocType string `json:"doc_type,omitempty"`
	TopK    int    `json:"top_k,omitempty"`
}

// Result is one ranked snippet.
type Result struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// Response is a normalized search response.
type Response struct {
	Query        string   `json:"query"`
	TotalResults int      `json:"total_results"`
	Results      []Result `json:"results"`
}

// Client calls the RAG service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for
// tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 6 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search posts the query to the service's /search endpoint and
// normalizes the response. Vector stores disagree on field names, so
// several aliases are accepted for content, metadata and score.
func (c *Client) Search(ctx context.Context, q Query) (*Response, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("rag: encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rag: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rag: contact service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rag: service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var raw struct {
		Query        string           `json:"query"`
		TotalResults *int             `json:"total_results"`
		Results      []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("rag: decode response: %w", err)
	}

	out := &Response{Query: raw.Query}
	if out.Query == "" {
		out.Query = q.Query
	}
	for _, r := range raw.Results {
		out.Results = append(out.Results, normalizeResult(r))
	}
	if raw.TotalResults != nil {
		out.TotalResults = *raw.TotalResults
	} else {
		out.TotalResults = len(out.Results)
	}
	return out, nil
}

func normalizeResult(r map[string]any) Result {
	var res Result

	for _, key := range []string{"content", "text", "snippet", "payload"} {
		if s, ok := r[key].(string); ok && s != "" {
			res.Content = s
			break
		}
	}

	for _, key := range []string{"metadata", "meta"} {
		if m, ok := r[key].(map[string]any); ok {
			res.Metadata = m
			break
		}
	}
	if res.Metadata == nil {
		res.Metadata = map[string]any{}
	}

	for _, key := range []string{"score", "similarity", "distance"} {
		if f, ok := r[key].(float64); ok {
			res.Score = f
			break
		}
	}
	return res
}
