package llm

// Roles used in a conversation transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatTurn is one entry in the ordered conversation transcript. Order is
// significant and preserved exactly when replaying to the provider.
type ChatTurn struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolInvocation `json:"tool_calls,omitempty"`
}

// ToolInvocation is produced only by the provider inside an assistant turn;
// it is never authored by this service.
type ToolInvocation struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded
}

// ToolSchema declares one callable function in the provider's tool format.
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// CompletionRequest is the provider wire request.
type CompletionRequest struct {
	Model       string       `json:"model"`
	Messages    []ChatTurn   `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
	Tools       []ToolSchema `json:"tools,omitempty"`
	ToolChoice  string       `json:"tool_choice,omitempty"`
}

// ChatCompletion is the provider wire response.
type ChatCompletion struct {
	ID      string       `json:"id"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

type ChatChoice struct {
	Message      ChatTurn `json:"message"`
	FinishReason string   `json:"finish_reason,omitempty"`
	Index        int      `json:"index"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FirstMessage returns the message of the first choice, or nil.
func (c *ChatCompletion) FirstMessage() *ChatTurn {
	if c == nil || len(c.Choices) == 0 {
		return nil
	}
	return &c.Choices[0].Message
}
