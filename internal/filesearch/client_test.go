package filesearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeAssistantsAPI is a minimal in-memory assistants backend.
type fakeAssistantsAPI struct {
	mu               sync.Mutex
	storesCreated    int32
	storeListed      bool
	runPollsToGo     int
	runFinalStatus   string
	answerText       string
	answerCitations  []map[string]any
	existingStore    string
	assistantDeleted bool
}

func (f *fakeAssistantsAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /vector_stores", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.storeListed = true
		f.mu.Unlock()
		data := []map[string]string{}
		if f.existingStore != "" {
			data = append(data, map[string]string{"id": f.existingStore, "name": vectorStoreName})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	mux.HandleFunc("POST /vector_stores", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.storesCreated, 1)
		json.NewEncoder(w).Encode(map[string]string{"id": "vs_new"})
	})
	mux.HandleFunc("POST /assistants", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "asst_1"})
	})
	mux.HandleFunc("DELETE /assistants/asst_1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.assistantDeleted = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /threads", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "thread_1"})
	})
	mux.HandleFunc("POST /threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "msg_1"})
	})
	mux.HandleFunc("POST /threads/thread_1/runs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "queued"})
	})
	mux.HandleFunc("GET /threads/thread_1/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		status := "in_progress"
		if f.runPollsToGo <= 0 {
			status = f.runFinalStatus
		}
		f.runPollsToGo--
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.HandleFunc("GET /threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"role": "assistant",
				"content": []map[string]any{{
					"type": "text",
					"text": map[string]any{
						"value":       f.answerText,
						"annotations": f.answerCitations,
					},
				}},
			}},
		})
	})

	return mux
}

func newTestClient(t *testing.T, api *fakeAssistantsAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "test-key", "gpt-test")
	c.pollEvery = time.Millisecond
	return c
}

func TestVectorStoreIDCreatesOnceUnderConcurrency(t *testing.T) {
	api := &fakeAssistantsAPI{}
	c := newTestClient(t, api)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := 0; i < len(ids); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := c.VectorStoreID(context.Background())
			if err != nil {
				t.Errorf("VectorStoreID: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&api.storesCreated); n != 1 {
		t.Fatalf("stores created = %d, want 1", n)
	}
	for _, id := range ids {
		if id != "vs_new" {
			t.Fatalf("ids = %v", ids)
		}
	}
}

func TestVectorStoreIDReusesExistingStoreByName(t *testing.T) {
	api := &fakeAssistantsAPI{existingStore: "vs_existing"}
	c := newTestClient(t, api)

	id, err := c.VectorStoreID(context.Background())
	if err != nil {
		t.Fatalf("VectorStoreID: %v", err)
	}
	if id != "vs_existing" {
		t.Fatalf("id = %q", id)
	}
	if api.storesCreated != 0 {
		t.Fatalf("stores created = %d, want 0", api.storesCreated)
	}
}

func TestSearchPollsRunUntilCompleted(t *testing.T) {
	api := &fakeAssistantsAPI{
		runPollsToGo:   2,
		runFinalStatus: "completed",
		answerText:     "the contract expires in 2027",
		answerCitations: []map[string]any{{
			"type":          "file_citation",
			"file_citation": map[string]string{"file_id": "file_1", "quote": "expires in 2027"},
		}},
	}
	c := newTestClient(t, api)

	answer, err := c.Search(context.Background(), "when does the contract expire?", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if answer.Content != "the contract expires in 2027" {
		t.Fatalf("content = %q", answer.Content)
	}
	if len(answer.Citations) != 1 || answer.Citations[0].FileID != "file_1" {
		t.Fatalf("citations = %+v", answer.Citations)
	}

	api.mu.Lock()
	deleted := api.assistantDeleted
	api.mu.Unlock()
	if !deleted {
		t.Fatal("ephemeral assistant was not cleaned up")
	}
}

func TestSearchFailedRunReturnsRunError(t *testing.T) {
	api := &fakeAssistantsAPI{runPollsToGo: 1, runFinalStatus: "failed"}
	c := newTestClient(t, api)

	_, err := c.Search(context.Background(), "query", nil)
	if err == nil {
		t.Fatal("expected error for failed run")
	}
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("error type = %T: %v", err, err)
	}
	if runErr.Status != "failed" {
		t.Fatalf("status = %q", runErr.Status)
	}
}

func TestSearchHonoursContextCancellation(t *testing.T) {
	api := &fakeAssistantsAPI{runPollsToGo: 1 << 30, runFinalStatus: "completed"}
	c := newTestClient(t, api)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Search(ctx, "query", nil)
	if err == nil {
		t.Fatal("expected error when context expires mid-poll")
	}
}
