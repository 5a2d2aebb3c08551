package handler

import (
	"errors"
	"net/http"

	"github.com/rohannevrikar/panta-flows-v2/internal/websearch"
)

type WebSearchHandler struct {
	searcher *websearch.Searcher
}

func NewWebSearchHandler(searcher *websearch.Searcher) *WebSearchHandler {
	return &WebSearchHandler{searcher: searcher}
}

// POST /api/web-search/search
func (h *WebSearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Query        string `json:"query"`
		MaxResults   int    `json:"max_results"`
		FetchContent *bool  `json:"fetch_content"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	if in.Query == "" {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "query is required")
		return
	}
	fetchContent := true
	if in.FetchContent != nil {
		fetchContent = *in.FetchContent
	}

	results, err := h.searcher.Search(r.Context(), in.Query, in.MaxResults, fetchContent)
	if err != nil {
		var searchErr *websearch.SearchError
		if errors.As(err, &searchErr) {
			writeError(w, http.StatusBadGateway, "E_UPSTREAM", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   in.Query,
		"results": results,
	})
}
