package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rohannevrikar/panta-flows-v2/internal/llm"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// CompletionClient issues one chat completions call.
type CompletionClient interface {
	CreateCompletion(ctx context.Context, req llm.CompletionRequest) (*llm.ChatCompletion, error)
}

// Request is one orchestrated completion over a conversation transcript.
type Request struct {
	Messages    []llm.ChatTurn `json:"messages"`
	FileIDs     []string       `json:"file_ids,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
}

// Result is the final assistant answer plus which tools ran to produce it.
type Result struct {
	Content   string        `json:"content"`
	ToolsUsed []string      `json:"tools_used"`
	Usage     llm.ChatUsage `json:"usage"`
}

// Orchestrator runs the two-phase completion loop: one model pass that may
// request tool calls, the tool dispatches, then one synthesis pass over the
// transcript with the tool results folded in.
type Orchestrator struct {
	llm     CompletionClient
	web     WebSearcher
	files   FileSearcher
	timeout time.Duration
}

func NewOrchestrator(client CompletionClient, web WebSearcher, files FileSearcher, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Orchestrator{llm: client, web: web, files: files, timeout: timeout}
}

// Complete runs the request to a final assistant answer. The deadline covers
// both model passes and every tool dispatch in between.
func (o *Orchestrator) Complete(ctx context.Context, req Request) (*Result, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]llm.ChatTurn, 0, len(req.Messages)+1)
	if len(req.FileIDs) > 0 {
		messages = append(messages, llm.ChatTurn{
			Role: llm.RoleSystem,
			Content: "The user has uploaded the following files: " + o.describeFiles(ctx, req.FileIDs) +
				". Use the file_search tool to search within these files when the question relates to their content.",
		})
	}
	messages = append(messages, req.Messages...)

	first, err := o.llm.CreateCompletion(ctx, llm.CompletionRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Tools:       toolSchemas(),
		ToolChoice:  "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	assistant := first.FirstMessage()
	if len(assistant.ToolCalls) == 0 {
		return &Result{
			Content:   assistant.Content,
			ToolsUsed: []string{},
			Usage:     first.Usage,
		}, nil
	}

	messages = append(messages, *assistant)
	toolsUsed := make([]string, 0, len(assistant.ToolCalls))
	for _, call := range assistant.ToolCalls {
		log.Printf("chat: dispatching tool %s (call %s)", call.Function.Name, call.ID)
		content, err := o.dispatch(ctx, call, req.FileIDs)
		if err != nil {
			return nil, err
		}
		messages = append(messages, llm.ChatTurn{
			Role:       llm.RoleTool,
			Name:       call.Function.Name,
			ToolCallID: call.ID,
			Content:    content,
		})
		toolsUsed = append(toolsUsed, call.Function.Name)
	}

	messages = append(messages, llm.ChatTurn{
		Role: llm.RoleSystem,
		Content: "Based on the tool results above, provide a comprehensive answer to the user's question. " +
			"Cite the sources you used where that helps.",
	})

	second, err := o.llm.CreateCompletion(ctx, llm.CompletionRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed after tool execution: %w", err)
	}

	usage := first.Usage
	usage.PromptTokens += second.Usage.PromptTokens
	usage.CompletionTokens += second.Usage.CompletionTokens
	usage.TotalTokens += second.Usage.TotalTokens

	return &Result{
		Content:   second.FirstMessage().Content,
		ToolsUsed: toolsUsed,
		Usage:     usage,
	}, nil
}

// describeFiles annotates each uploaded file id with what metadata the
// retrieval collaborator has. Lookup failures leave the bare id; the listing
// must never block the completion.
func (o *Orchestrator) describeFiles(ctx context.Context, fileIDs []string) string {
	parts := make([]string, 0, len(fileIDs))
	for _, id := range fileIDs {
		info, err := o.files.FileInfo(ctx, id)
		if err != nil || info == nil {
			parts = append(parts, id)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%d bytes)", info.ID, info.Size))
	}
	return strings.Join(parts, ", ")
}
