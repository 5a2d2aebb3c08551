package filesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	vectorStoreName  = "File Search Vector Store"
	metadataPollMax  = 10
	defaultPollEvery = time.Second
)

// RunError reports a retrieval run that ended in a non-completed state.
type RunError struct {
	Status string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run finished with status %q", e.Status)
}

// Citation links an answer passage back to a source file.
type Citation struct {
	FileID string `json:"file_id"`
	Quote  string `json:"quote"`
}

// Answer is the synthesized retrieval result.
type Answer struct {
	Content   string     `json:"content"`
	Citations []Citation `json:"file_citations"`
}

// FileInfo describes one indexed file.
type FileInfo struct {
	ID          string `json:"id"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	URL         string `json:"url,omitempty"`
}

// Client drives a hosted assistants/retrieval API: an ephemeral assistant
// scoped to a vector store answers queries over previously uploaded files.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client

	pollEvery time.Duration

	// Vector store handle: resolved once, reused for the process lifetime.
	mu            sync.Mutex
	vectorStoreID string
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:    strings.TrimSpace(apiKey),
		model:     model,
		client:    &http.Client{Timeout: 60 * time.Second},
		pollEvery: defaultPollEvery,
	}
}

// VectorStoreID returns the shared vector store id, resolving it on first use.
// The mutex serializes concurrent cold starts so only one store is created.
func (c *Client) VectorStoreID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vectorStoreID != "" {
		return c.vectorStoreID, nil
	}

	var listed struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/vector_stores", nil, &listed); err != nil {
		return "", fmt.Errorf("list vector stores: %w", err)
	}
	for _, store := range listed.Data {
		if store.Name == vectorStoreName {
			c.vectorStoreID = store.ID
			return c.vectorStoreID, nil
		}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/vector_stores", map[string]any{"name": vectorStoreName}, &created); err != nil {
		return "", fmt.Errorf("create vector store: %w", err)
	}
	c.vectorStoreID = created.ID
	return c.vectorStoreID, nil
}

const assistantInstructions = "You are a helpful assistant that can search through files to answer questions. " +
	"If files are provided, use the file_search tool to find relevant information in those files. " +
	"Always prioritize information from the files when available, and explicitly mention which file(s) the information came from."

// Search posts the query to an ephemeral assistant and polls the run until a
// terminal status. A non-completed terminal status or context expiry fails
// with an error; callers convert that into tool-result text.
func (c *Client) Search(ctx context.Context, query string, fileIDs []string) (*Answer, error) {
	storeID, err := c.VectorStoreID(ctx)
	if err != nil {
		return nil, err
	}

	var assistant struct {
		ID string `json:"id"`
	}
	err = c.do(ctx, http.MethodPost, "/assistants", map[string]any{
		"name":         "File Search Assistant",
		"instructions": assistantInstructions,
		"model":        c.model,
		"tools":        []map[string]string{{"type": "file_search"}},
		"tool_resources": map[string]any{
			"file_search": map[string]any{"vector_store_ids": []string{storeID}},
		},
	}, &assistant)
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}
	defer func() {
		// Ephemeral assistant; removal failure is not worth surfacing.
		_ = c.do(context.Background(), http.MethodDelete, "/assistants/"+assistant.ID, nil, nil)
	}()

	var thread struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	message := map[string]any{"role": "user", "content": query}
	if len(fileIDs) > 0 {
		message["content"] = query + "\n\nSearch within these files: " + strings.Join(fileIDs, ", ")
	}
	if err := c.do(ctx, http.MethodPost, "/threads/"+thread.ID+"/messages", message, nil); err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}

	var run struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/threads/"+thread.ID+"/runs", map[string]any{"assistant_id": assistant.ID}, &run); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	status := run.Status
	for status != "completed" {
		switch status {
		case "failed", "cancelled", "expired":
			return nil, &RunError{Status: status}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollEvery):
		}
		var polled struct {
			Status string `json:"status"`
		}
		if err := c.do(ctx, http.MethodGet, "/threads/"+thread.ID+"/runs/"+run.ID, nil, &polled); err != nil {
			return nil, fmt.Errorf("poll run: %w", err)
		}
		status = polled.Status
	}

	return c.firstAssistantAnswer(ctx, thread.ID)
}

func (c *Client) firstAssistantAnswer(ctx context.Context, threadID string) (*Answer, error) {
	var messages struct {
		Data []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text struct {
					Value       string `json:"value"`
					Annotations []struct {
						Type         string `json:"type"`
						FileCitation struct {
							FileID string `json:"file_id"`
							Quote  string `json:"quote"`
						} `json:"file_citation"`
					} `json:"annotations"`
				} `json:"text"`
			} `json:"content"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages", nil, &messages); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	for _, msg := range messages.Data {
		if msg.Role != "assistant" {
			continue
		}
		answer := &Answer{Citations: []Citation{}}
		for _, part := range msg.Content {
			if part.Type != "text" {
				continue
			}
			if answer.Content == "" {
				answer.Content = part.Text.Value
			}
			for _, ann := range part.Text.Annotations {
				if ann.Type != "file_citation" {
					continue
				}
				answer.Citations = append(answer.Citations, Citation{
					FileID: ann.FileCitation.FileID,
					Quote:  ann.FileCitation.Quote,
				})
			}
		}
		return answer, nil
	}
	return nil, fmt.Errorf("no assistant response in thread")
}

// FileInfo fetches vector-store metadata for one file, polling a bounded
// number of times while the file is still indexing.
func (c *Client) FileInfo(ctx context.Context, fileID string) (*FileInfo, error) {
	storeID, err := c.VectorStoreID(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < metadataPollMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollEvery):
			}
		}
		var meta struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Size   int64  `json:"usage_bytes"`
		}
		if err := c.do(ctx, http.MethodGet, "/vector_stores/"+storeID+"/files/"+fileID, nil, &meta); err != nil {
			return nil, fmt.Errorf("file %s not found: %w", fileID, err)
		}
		if meta.Status == "in_progress" {
			continue
		}
		if meta.Status == "failed" || meta.Status == "cancelled" {
			return nil, &RunError{Status: meta.Status}
		}
		return &FileInfo{ID: meta.ID, Size: meta.Size, ContentType: "application/octet-stream"}, nil
	}
	return nil, fmt.Errorf("file %s metadata timed out after %d attempts", fileID, metadataPollMax)
}

// Upload sends file bytes to the provider files API and attaches the file to
// the shared vector store.
func (c *Client) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write upload form: %w", err)
	}
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("write upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("upload file: status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	storeID, err := c.VectorStoreID(ctx)
	if err != nil {
		return "", err
	}
	if err := c.do(ctx, http.MethodPost, "/vector_stores/"+storeID+"/files", map[string]any{"file_id": uploaded.ID}, nil); err != nil {
		// Indexing failure leaves the file uploaded but unsearchable;
		// the caller can retry the attach.
		return uploaded.ID, fmt.Errorf("attach file to vector store: %w", err)
	}
	return uploaded.ID, nil
}

// ListFiles returns all files known to the provider files API.
func (c *Client) ListFiles(ctx context.Context) ([]FileInfo, error) {
	var listed struct {
		Data []struct {
			ID      string `json:"id"`
			Bytes   int64  `json:"bytes"`
			Purpose string `json:"purpose"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/files", nil, &listed); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	out := make([]FileInfo, 0, len(listed.Data))
	for _, f := range listed.Data {
		out = append(out, FileInfo{ID: f.ID, Size: f.Bytes, ContentType: f.Purpose})
	}
	return out, nil
}

// DeleteFile removes a file from the provider files API.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.do(ctx, http.MethodDelete, "/files/"+fileID, nil, nil); err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("api-key", c.apiKey)
	}
	req.Header.Set("OpenAI-Beta", "assistants=v2")
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("document store endpoint is not configured")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("upstream returned %d: %s", res.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	return json.Unmarshal(bodyBytes, out)
}
