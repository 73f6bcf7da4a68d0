package transport

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/ingest"
)

const (
	streamBuffer    = 64
	streamHeartbeat = 15 * time.Second

	// deletedRank suppresses anything queued for a deleted id. Ids are never reused.
	deletedRank = math.MaxInt
)

// progressRank orders states of one document; the engine never lowers it.
func progressRank(rec document.Record) int {
	var rank int
	switch rec.Status {
	case document.StatusQueued:
		rank = 0
	case document.StatusTransferring:
		rank = 1
	case document.StatusProcessing:
		rank = 2
	default:
		rank = 3
	}
	return rank*1000 + rec.ProgressPercent
}

type deletedView struct {
	ID string `json:"id"`
}

// handleStream sends every current document as a snapshot event, then
// registered, update and deleted events as they happen, in server-sent
// events format.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	changes := make(chan ingest.Change, streamBuffer)
	overflow := make(chan struct{})
	var overflowed bool
	// Watchers run under the service lock and must not block.
	unwatch := s.docs.Watch(func(c ingest.Change) {
		if overflowed {
			return
		}
		select {
		case changes <- c:
		default:
			overflowed = true
			close(overflow)
		}
	})
	defer unwatch()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sent := make(map[string]int)
	for rec := range s.docs.List() {
		sent[rec.ID] = progressRank(rec)
		if err := writeEvent(w, "snapshot", newDocumentView(rec)); err != nil {
			return
		}
	}
	if err := rc.Flush(); err != nil {
		s.logger.Debug("document stream flush failed", "error", err)
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-overflow:
			s.logger.Warn("document stream fell behind, closing")
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case c := <-changes:
			if err := writeChange(w, sent, c); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeChange(w http.ResponseWriter, sent map[string]int, c ingest.Change) error {
	id := c.Record.ID
	if c.Kind == ingest.ChangeDeleted {
		if sent[id] == deletedRank {
			return nil
		}
		sent[id] = deletedRank
		return writeEvent(w, "deleted", deletedView{ID: id})
	}

	rank := progressRank(c.Record)
	if last, ok := sent[id]; ok && rank <= last {
		return nil
	}
	sent[id] = rank

	name := "update"
	if c.Kind == ingest.ChangeRegistered {
		name = "registered"
	}
	return writeEvent(w, name, newDocumentView(c.Record))
}

func writeEvent(w http.ResponseWriter, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
