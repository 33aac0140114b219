package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/wordpractice/internal/clock"
	"github.com/conorfennell/wordpractice/internal/domain"
	"github.com/conorfennell/wordpractice/internal/query"
	"github.com/conorfennell/wordpractice/internal/storage"
	"github.com/conorfennell/wordpractice/internal/sync"
	"github.com/conorfennell/wordpractice/internal/vocab"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	db     *storage.DB
	words  *vocab.Service
	syncer *sync.Syncer
	router *http.ServeMux
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, words *vocab.Service, syncer *sync.Syncer) *Server {
	s := &Server{
		db:     db,
		words:  words,
		syncer: syncer,
		router: http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/words", s.handleWords())
	s.router.HandleFunc("/words/due", s.handleGetDue())
	s.router.HandleFunc("/words/", s.handleWord())

	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

type answerJSON struct {
	Correct bool   `json:"correct"`
	AskedAt string `json:"asked_at"`
}

type wordJSON struct {
	ID             int64        `json:"id"`
	Word           string       `json:"word"`
	Translation    string       `json:"translation"`
	Example        string       `json:"example"`
	Tags           []domain.Tag `json:"tags"`
	NextReviewDate string       `json:"next_review_date"`
	History        []answerJSON `json:"history"`
}

func toWordJSON(w domain.Word) wordJSON {
	out := wordJSON{
		ID:             w.ID,
		Word:           w.Word,
		Translation:    w.Translation,
		Example:        w.Example,
		Tags:           w.Tags,
		NextReviewDate: clock.FormatDate(w.NextReviewDate),
		History:        make([]answerJSON, len(w.History)),
	}
	if out.Tags == nil {
		out.Tags = []domain.Tag{}
	}
	for i, a := range w.History {
		out.History[i] = answerJSON{Correct: a.Correct, AskedAt: clock.FormatDate(a.AskedAt)}
	}
	return out
}

func toWordsJSON(words []domain.Word) []wordJSON {
	out := make([]wordJSON, len(words))
	for i, w := range words {
		out[i] = toWordJSON(w)
	}
	return out
}

// wordRequest is the body of POST /words and PUT /words/{id}. Tags accept
// full names and one-letter aliases.
type wordRequest struct {
	Word        string   `json:"word"`
	Translation string   `json:"translation"`
	Example     string   `json:"example"`
	Tags        []string `json:"tags"`
}

func (req wordRequest) input() (domain.WordInput, error) {
	in := domain.WordInput{Word: req.Word, Translation: req.Translation, Example: req.Example}
	for _, raw := range req.Tags {
		t, err := domain.ParseTag(raw)
		if err != nil {
			return in, err
		}
		in.Tags = append(in.Tags, t)
	}
	return in, nil
}

type sourceJSON struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"last_scanned"`
}

func toSourceJSON(src storage.Source) sourceJSON {
	out := sourceJSON{ID: src.ID, Path: src.Path, Type: src.Type}
	if src.LastScanned.Valid {
		t := src.LastScanned.Time
		out.LastScanned = &t
	}
	return out
}

// handleWords lists words page by page or adds a new one.
func (s *Server) handleWords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleListWords(w, r)
		case http.MethodPost:
			s.handleAddWord(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleListWords serves GET /words?contains=&offset=&limit=.
func (s *Server) handleListWords(w http.ResponseWriter, r *http.Request) {
	spec, err := pageSpec(query.New().OrderByID(), r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if sub := r.URL.Query().Get("contains"); sub != "" {
		spec = spec.WordContains(sub)
	}

	total, err := s.db.CountWords(r.Context(), spec)
	if err != nil {
		writeError(w, err)
		return
	}
	words, err := s.words.FindWords(r.Context(), spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"offset": spec.Offset(),
		"limit":  spec.Limit(),
		"words":  toWordsJSON(words),
	})
}

func (s *Server) handleAddWord(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeWord(w, r)
	if !ok {
		return
	}
	word, err := s.words.AddWord(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWordJSON(word))
}

// handleGetDue reports how many words are due and lists the most overdue.
func (s *Server) handleGetDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		spec, err := pageSpec(query.DueSample(), r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		due, err := s.db.CountWords(r.Context(), spec)
		if err != nil {
			writeError(w, err)
			return
		}
		words, err := s.words.FindWords(r.Context(), spec)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"due":   due,
			"words": toWordsJSON(words),
		})
	}
}

// handleWord serves GET and PUT on /words/{id}.
func (s *Server) handleWord() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/words/"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid word ID", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			word, err := s.words.GetWord(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toWordJSON(word))
		case http.MethodPut:
			in, ok := decodeWord(w, r)
			if !ok {
				return
			}
			word, err := s.words.EditWord(r.Context(), id, in)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toWordJSON(word))
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleSources handles both GET and POST for the sources list.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.writeSources(w, r)
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	path := strings.TrimSpace(body.Path)
	if path == "" {
		http.Error(w, "Path cannot be empty", http.StatusBadRequest)
		return
	}

	src, err := s.syncer.AddSource(r.Context(), path)
	if err != nil {
		slog.Error("Error inserting new source", "path", path, "error", err)
		http.Error(w, "Failed to add source", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toSourceJSON(*src))
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/sources/"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}

		if err := s.db.DeleteSource(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrSourceNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			slog.Error("Error deleting source", "id", id, "error", err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}
		s.writeSources(w, r)
	}
}

// handlePostSync runs a sync in the foreground and returns its report.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		report, err := s.syncer.RunSync(r.Context())
		if err != nil {
			slog.Error("Error running sync", "error", err)
			http.Error(w, "Sync failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) writeSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources(r.Context())
	if err != nil {
		slog.Error("Error getting sources", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	out := make([]sourceJSON, len(sources))
	for i, src := range sources {
		out[i] = toSourceJSON(src)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

// pageSpec reads the offset and limit query parameters onto spec.
func pageSpec(spec query.Spec, r *http.Request) (query.Spec, error) {
	q := r.URL.Query()
	offset, limit := 0, 0
	var err error
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return spec, errors.New("invalid offset")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return spec, errors.New("invalid limit")
		}
	}
	if limit > query.SampleLimit {
		limit = query.SampleLimit
	}
	return spec.Page(offset, limit), nil
}

func decodeWord(w http.ResponseWriter, r *http.Request) (domain.WordInput, bool) {
	var req wordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return domain.WordInput{}, false
	}
	in, err := req.input()
	if err != nil {
		writeError(w, err)
		return domain.WordInput{}, false
	}
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidWord), errors.Is(err, domain.ErrInvalidTag):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrWordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrDuplicateWord):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("Request failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
