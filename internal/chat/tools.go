package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rohannevrikar/panta-flows-v2/internal/filesearch"
	"github.com/rohannevrikar/panta-flows-v2/internal/llm"
	"github.com/rohannevrikar/panta-flows-v2/internal/websearch"
)

const (
	toolWebSearch  = "web_search"
	toolFileSearch = "file_search"
)

// WebSearcher runs one retried keyword search with optional page enrichment.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int, fetchContent bool) ([]websearch.Result, error)
}

// FileSearcher answers a query over the uploaded document corpus.
type FileSearcher interface {
	Search(ctx context.Context, query string, fileIDs []string) (*filesearch.Answer, error)
	FileInfo(ctx context.Context, fileID string) (*filesearch.FileInfo, error)
}

// toolSchemas is the closed set of functions the model may call.
func toolSchemas() []llm.ToolSchema {
	return []llm.ToolSchema{
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        toolWebSearch,
				Description: "Search the web for current information on a topic",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The search query",
						},
						"max_results": map[string]any{
							"type":        "integer",
							"description": "Maximum number of results to return",
							"default":     5,
						},
						"fetch_content": map[string]any{
							"type":        "boolean",
							"description": "Whether to fetch and analyze the content of each result",
							"default":     true,
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        toolFileSearch,
				Description: "Search through uploaded files to find relevant information",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The search query",
						},
						"file_ids": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Ids of the files to search within",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}
}

// dispatch executes one tool call and returns result text. Collaborator
// failures are folded into the text so the second model pass can explain
// them; malformed arguments and everything around the calls fail the
// request.
func (o *Orchestrator) dispatch(ctx context.Context, call llm.ToolInvocation, requestFileIDs []string) (string, error) {
	switch call.Function.Name {
	case toolWebSearch:
		var args struct {
			Query        string `json:"query"`
			MaxResults   int    `json:"max_results"`
			FetchContent *bool  `json:"fetch_content"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", toolWebSearch, err)
		}
		if args.MaxResults <= 0 {
			args.MaxResults = 5
		}
		fetchContent := true
		if args.FetchContent != nil {
			fetchContent = *args.FetchContent
		}
		results, err := o.web.Search(ctx, args.Query, args.MaxResults, fetchContent)
		if err != nil {
			return fmt.Sprintf("Error executing web_search: %v", err), nil
		}
		encoded, err := json.Marshal(results)
		if err != nil {
			return fmt.Sprintf("Error executing web_search: %v", err), nil
		}
		return string(encoded), nil

	case toolFileSearch:
		var args struct {
			Query   string   `json:"query"`
			FileIDs []string `json:"file_ids"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", toolFileSearch, err)
		}
		// File ids from the request always win over model-supplied ones.
		fileIDs := args.FileIDs
		if requestFileIDs != nil {
			fileIDs = requestFileIDs
		}
		answer, err := o.files.Search(ctx, args.Query, fileIDs)
		if err != nil {
			return fmt.Sprintf("Error executing file_search: %v", err), nil
		}
		return formatFileAnswer(answer), nil

	default:
		return fmt.Sprintf("Error: unknown tool %q", call.Function.Name), nil
	}
}

func formatFileAnswer(answer *filesearch.Answer) string {
	if len(answer.Citations) == 0 {
		return answer.Content
	}
	var sb strings.Builder
	sb.WriteString(answer.Content)
	sb.WriteString("\n\nSources:")
	for _, c := range answer.Citations {
		sb.WriteString("\n- ")
		sb.WriteString(c.FileID)
		if c.Quote != "" {
			sb.WriteString(": ")
			sb.WriteString(c.Quote)
		}
	}
	return sb.String()
}
