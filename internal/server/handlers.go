package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/metrics"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/store"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/transcript"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/websearch"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type generateRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	result, err := s.responder.Generate(r.Context(), req.Prompt, req.MaxTokens)
	if err != nil {
		s.metrics.RecordError(metrics.OpGenerate)
		s.logger.Error("generation failed", "error", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type intentSummary struct {
	Name      string `json:"name"`
	Triggers  int    `json:"triggers"`
	Keywords  int    `json:"keywords"`
	Examples  int    `json:"examples"`
	Responses int    `json:"responses"`
}

func (s *Server) handleIntents(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	summaries := make([]intentSummary, 0, len(snap.Brain.Intents))
	for _, name := range snap.Brain.IntentNames() {
		it := snap.Brain.Intents[name]
		summaries = append(summaries, intentSummary{
			Name:      name,
			Triggers:  len(it.Triggers),
			Keywords:  len(it.Keywords),
			Examples:  len(it.Examples),
			Responses: len(it.Responses),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"intents":         summaries,
		"global_keywords": len(snap.Brain.AllGlobalKeywords()),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		writeError(w, http.StatusServiceUnavailable, "no corpus source configured")
		return
	}

	start := time.Now()

	data, err := s.source.Load(r.Context())
	if err != nil {
		s.metrics.RecordError(metrics.OpReload)
		writeError(w, http.StatusBadGateway, "load corpus: "+err.Error())
		return
	}
	if err := s.store.Reload(data); err != nil {
		s.metrics.RecordError(metrics.OpReload)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.metrics.RecordTiming(metrics.OpReload, time.Since(start))
	info := s.store.Info()
	s.logger.Info("corpus reloaded",
		"source", s.source.Describe(),
		"intents", info.Intents,
		"transitions", info.Transitions)
	writeJSON(w, http.StatusOK, info)
}

type statsResponse struct {
	Store      store.Info        `json:"store"`
	Runtime    metrics.Snapshot  `json:"runtime"`
	Transcript *transcript.Stats `json:"transcript,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Store:   s.store.Info(),
		Runtime: s.metrics.Snapshot(),
	}

	if s.history != nil {
		totals, err := s.history.Totals(r.Context())
		if err != nil {
			s.logger.Warn("transcript totals unavailable", "error", err)
		} else {
			resp.Transcript = &totals
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	start := time.Now()
	results, err := s.search.Search(r.Context(), query)
	if err != nil {
		s.metrics.RecordError(metrics.OpSearch)
		s.logger.Warn("web search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	s.metrics.RecordTiming(metrics.OpSearch, time.Since(start))

	if results == nil {
		results = []websearch.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	pageURL := r.URL.Query().Get("url")
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url must be absolute http(s)")
		return
	}

	start := time.Now()
	page, err := s.search.Extract(r.Context(), pageURL)
	if err != nil {
		s.metrics.RecordError(metrics.OpExtract)
		s.logger.Warn("page extraction failed", "url", pageURL, "error", err)
		writeError(w, http.StatusBadGateway, "extraction failed")
		return
	}
	s.metrics.RecordTiming(metrics.OpExtract, time.Since(start))

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	exchanges, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}

	if exchanges == nil {
		exchanges = []transcript.Exchange{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exchanges": exchanges})
}
