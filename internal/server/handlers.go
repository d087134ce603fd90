package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

const maxBodyBytes = 1 << 20

// contentTypeInfo is one entry of the /types listing.
type contentTypeInfo struct {
	Type  recommend.ContentType `json:"type"`
	Label string                `json:"label"`
}

var contentTypeLabels = buildContentTypeLabels()

func buildContentTypeLabels() []contentTypeInfo {
	title := cases.Title(language.English)
	out := make([]contentTypeInfo, 0, len(recommend.ContentTypes))
	for _, t := range recommend.ContentTypes {
		label := title.String(strings.ReplaceAll(string(t), "_", " "))
		if t == recommend.ContentPDF {
			label = "PDF"
		}
		out = append(out, contentTypeInfo{Type: t, Label: label})
	}
	return out
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		if isBodyTooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, "Error reading request body", err)
		return
	}

	req, err := parseSuggestionRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid suggestion request", err)
		return
	}

	suggestions, err := s.suggester.Suggest(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), "Error getting suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilSuggestions(suggestions))
}

func (s *Server) handleCached(w http.ResponseWriter, r *http.Request) {
	elementID := r.PathValue("elementId")

	suggestions, ok, err := s.suggester.Cached(r.Context(), elementID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error getting cached suggestions", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "No cached suggestions found", nil)
		return
	}
	writeJSON(w, http.StatusOK, nonNilSuggestions(suggestions))
}

func handleTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, contentTypeLabels)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeError(w, http.StatusNotFound, "Catalog statistics are not available", nil)
		return
	}

	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error getting catalog statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func nonNilSuggestions(s []recommend.Suggestion) []recommend.Suggestion {
	if s == nil {
		return []recommend.Suggestion{}
	}
	return s
}

// isBodyTooLarge reports whether err came from MaxBytesReader.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
