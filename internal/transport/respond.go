package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// documentView is a record plus presentation fields.
type documentView struct {
	document.Record
	SizeLabel string `json:"size_label"`
}

func newDocumentView(rec document.Record) documentView {
	return documentView{Record: rec, SizeLabel: humanize.IBytes(uint64(max(rec.SizeBytes, 0)))}
}

func newDocumentViews(records []document.Record) []documentView {
	out := make([]documentView, 0, len(records))
	for _, rec := range records {
		out = append(out, newDocumentView(rec))
	}
	return out
}

// statusFor maps domain errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, document.ErrInvalidEvent):
		return http.StatusBadRequest, "INVALID_EVENT"
	case errors.Is(err, document.ErrInvalidMetadata):
		return http.StatusBadRequest, "INVALID_METADATA"
	case errors.Is(err, activity.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, document.ErrUnknownDocument):
		return http.StatusNotFound, "UNKNOWN_DOCUMENT"
	case errors.Is(err, document.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, code, msg)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: apiError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
