package transport

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/repository"
)

const defaultHistoryLimit = 50

type listResponse struct {
	Documents []documentView `json:"documents"`
}

type activityResponse struct {
	Entries []activity.ActivityEntry `json:"entries"`
}

type historyResponse struct {
	ID      string                   `json:"id"`
	Entries []activity.ActivityEntry `json:"entries"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var meta document.Metadata
	if !decodeBody(w, r, &meta) {
		return
	}
	rec, err := s.docs.Register(meta)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDocumentView(rec))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	statuses, err := parseStatuses(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Documents: newDocumentViews(s.docs.ListByStatus(statuses...))})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.docs.Summary())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.docs.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentView(rec))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.Delete(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev document.Event
	if !decodeBody(w, r, &ev) {
		return
	}
	rec, err := s.docs.HandleEvent(chi.URLParam(r, "id"), ev)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentView(rec))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	entries, err := s.docs.History(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("failed to read document history", "document_id", id, "error", err)
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{ID: id, Entries: entries})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	statuses, err := parseStatuses(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	records, err := s.docs.Archive(r.Context(), repository.ListDocumentsOptions{
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.logger.Error("failed to list archived documents", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Documents: newDocumentViews(records)})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	opts := activity.ListActivityOptions{Limit: limit, Offset: offset}
	if v := r.URL.Query().Get("type"); v != "" {
		t := activity.ActivityType(v)
		opts.ActivityType = &t
	}
	if v := r.URL.Query().Get("document_id"); v != "" {
		opts.DocumentID = &v
	}
	entries, err := s.docs.RecentActivity(r.Context(), opts)
	if err != nil {
		s.logger.Error("failed to list activity", "error", err)
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Entries: entries})
}

func parseStatuses(r *http.Request) ([]document.Status, error) {
	raw := r.URL.Query()["status"]
	statuses := make([]document.Status, 0, len(raw))
	for _, v := range raw {
		st := document.Status(v)
		if !slices.Contains(document.Statuses(), st) {
			return nil, fmt.Errorf("unknown status %q", v)
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}
