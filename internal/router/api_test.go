package router

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rohannevrikar/panta-flows-v2/internal/config"
	"github.com/rohannevrikar/panta-flows-v2/internal/db"
)

// fakeProvider scripts an OpenAI-compatible backend: the first completion
// call requests a web_search tool call, the second synthesizes the answer.
func fakeProvider(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Tools []any `json:"tools"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode provider request: %v", err)
		}
		calls++
		if calls == 1 {
			if len(req.Tools) == 0 {
				t.Error("first pass must advertise tools")
			}
			fmt.Fprint(w, `{"id":"cmpl-1","choices":[{"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"web_search","arguments":"{\"query\":\"latest go release\",\"fetch_content\":false}"}}]}}],"usage":{"total_tokens":10}}`)
			return
		}
		if len(req.Tools) != 0 {
			t.Error("second pass must not advertise tools")
		}
		fmt.Fprint(w, `{"id":"cmpl-2","choices":[{"message":{"role":"assistant","content":"Go 1.24 is the latest release."}}],"usage":{"total_tokens":20}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func setupAPI(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()
	provider, _ := fakeProvider(t)
	return setupAPIWithProvider(t, provider.URL)
}

func setupAPIWithProvider(t *testing.T, providerURL string) (http.Handler, *sql.DB) {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"title":"Go 1.24 Release Notes","url":"https://go.dev/doc/go1.24","snippet":"Go 1.24 released"}]`)
	}))
	t.Cleanup(engine.Close)

	cfg := &config.Config{
		JWTSecret:                "test-secret",
		TokenExpiryHours:         24,
		CompletionTimeoutSeconds: 120,
		ProviderEndpoint:         providerURL,
		ProviderModel:            "gpt-test",
		SearchEndpoint:           engine.URL,
	}
	return New(cfg, database, Deps{}), database
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func signupAndLogin(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "user@example.com",
		"name":     "User",
		"password": "pw123456",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "pw123456",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.AccessToken == "" {
		t.Fatal("empty access token")
	}
	return login.AccessToken
}

func TestChatMessageRunsToolAugmentedCompletion(t *testing.T) {
	h, database := setupAPI(t)
	token := signupAndLogin(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/chat/message", token, map[string]any{
		"message": "what is the latest go release?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("message status = %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		SessionID string   `json:"session_id"`
		Content   string   `json:"content"`
		ToolsUsed []string `json:"tools_used"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Content != "Go 1.24 is the latest release." {
		t.Fatalf("content = %q", out.Content)
	}
	if len(out.ToolsUsed) != 1 || out.ToolsUsed[0] != "web_search" {
		t.Fatalf("tools used = %v", out.ToolsUsed)
	}

	var messageCount int
	if err := database.QueryRow(
		`SELECT COUNT(1) FROM chat_messages WHERE session_id = ?`, out.SessionID).Scan(&messageCount); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if messageCount != 2 {
		t.Fatalf("persisted %d messages, want user + assistant", messageCount)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/chat/sessions/"+out.SessionID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get session status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Go 1.24 is the latest release.") {
		t.Fatalf("session transcript missing assistant answer: %s", rec.Body.String())
	}
}

func TestChatMessageSessionDeletedMidRequestIsNotFound(t *testing.T) {
	// The provider deletes every session while the completion is in flight,
	// so the transcript writes after it find nothing to append to.
	var database *sql.DB
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := database.Exec(`DELETE FROM chat_sessions`); err != nil {
			t.Errorf("delete sessions: %v", err)
		}
		fmt.Fprint(w, `{"id":"cmpl-1","choices":[{"message":{"role":"assistant","content":"answer"}}]}`)
	}))
	t.Cleanup(provider.Close)

	h, dbConn := setupAPIWithProvider(t, provider.URL)
	database = dbConn
	token := signupAndLogin(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/chat/message", token, map[string]any{
		"message": "hi",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}

	var orphans int
	if err := database.QueryRow(`SELECT COUNT(1) FROM chat_messages`).Scan(&orphans); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("persisted %d messages into a deleted session", orphans)
	}
}

func TestChatEndpointsRequireAuth(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/api/chat/message", "", map[string]any{"message": "hi"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rec.Code)
	}
}

func TestClientAdminRoutesForbiddenForPlainUsers(t *testing.T) {
	h, _ := setupAPI(t)
	token := signupAndLogin(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/users", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("plain user listing users status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/clients", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("plain user listing clients status = %d", rec.Code)
	}
}

func TestWorkflowsSeededOnFirstList(t *testing.T) {
	h, _ := setupAPI(t)
	token := signupAndLogin(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/workflows", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("workflows status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Workflows []struct {
			Title string `json:"title"`
		} `json:"workflows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Workflows) == 0 {
		t.Fatal("first listing must seed default workflows")
	}
}
