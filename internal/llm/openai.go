package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements Client against any OpenAI-compatible chat
// completions endpoint.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*openaiConfig)

type openaiConfig struct {
	baseURL string
	model   string
}

// WithBaseURL points the client at a non-default endpoint, e.g. a
// local vLLM server or a compatible hosted provider.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openaiConfig) { c.baseURL = url }
}

// WithModel sets the default model used when a request does not name
// one.
func WithModel(model string) OpenAIOption {
	return func(c *openaiConfig) { c.model = model }
}

// NewOpenAIClient builds a Client backed by the OpenAI API.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openaiConfig{model: "gpt-4o-mini"}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  cfg.model,
	}
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: buildMessages(req),
	}
	if tools, err := buildTools(req.Tools); err != nil {
		return nil, err
	} else if len(tools) > 0 {
		params.Tools = tools
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens != 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai completion: empty choices for model %s", model)
	}

	choice := completion.Choices[0]
	resp := &Response{
		Content:      choice.Message.Content,
		Model:        completion.Model,
		FinishReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return resp, nil
}

// buildMessages converts the unified history into OpenAI params. Tool
// results must follow the assistant message whose call they answer,
// which the caller's history already guarantees.
func buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	var params []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		params = append(params, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case RoleUser:
			params = append(params, openai.UserMessage(msg.Content))
		case RoleTool:
			params = append(params, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case RoleAssistant:
			var toolCalls []openai.ChatCompletionMessageToolCallParam
			for _, tc := range msg.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				Content:   openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(msg.Content)},
				ToolCalls: toolCalls,
			}
			params = append(params, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return params
}

// buildTools converts ToolDefs into OpenAI function tools.
func buildTools(defs []ToolDef) ([]openai.ChatCompletionToolParam, error) {
	var result []openai.ChatCompletionToolParam
	for _, def := range defs {
		fn := shared.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
		}
		if def.Schema != nil {
			raw, err := json.Marshal(def.Schema)
			if err != nil {
				return nil, fmt.Errorf("tool %s: marshal schema: %w", def.Name, err)
			}
			var parameters shared.FunctionParameters
			if err := json.Unmarshal(raw, &parameters); err != nil {
				return nil, fmt.Errorf("tool %s: schema is not an object: %w", def.Name, err)
			}
			fn.Parameters = parameters
		}
		result = append(result, openai.ChatCompletionToolParam{
			Type:     "function",
			Function: fn,
		})
	}
	return result, nil
}
