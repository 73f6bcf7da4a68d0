package mcp

import (
	"context"
	"fmt"
	"slices"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultHistoryLimit = 50

func registerTools(server *sdkmcp.Server, docs DocumentService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "register_document",
		Description: "Start tracking a document submitted for ingestion. Returns the new record in the queued state.",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, in RegisterDocumentParams) (*sdkmcp.CallToolResult, DocumentResponse, error) {
		rec, err := docs.Register(document.Metadata{Name: in.Name, SizeBytes: in.SizeBytes, MIMEType: in.MIMEType})
		if err != nil {
			return nil, DocumentResponse{}, MapError(err)
		}
		return nil, NewDocumentResponse(rec), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "handle_event",
		Description: "Report a transport event (progress, completed or error) for a tracked document.",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, in HandleEventParams) (*sdkmcp.CallToolResult, DocumentResponse, error) {
		rec, err := docs.HandleEvent(in.ID, document.Event{
			Kind:    document.EventKind(in.Kind),
			Percent: in.Percent,
			Subject: in.Subject,
			Detail:  in.Detail,
		})
		if err != nil {
			return nil, DocumentResponse{}, MapError(err)
		}
		return nil, NewDocumentResponse(rec), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_document",
		Description: "Get the current status of one document.",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, in DocumentIDParams) (*sdkmcp.CallToolResult, DocumentResponse, error) {
		rec, err := docs.Get(in.ID)
		if err != nil {
			return nil, DocumentResponse{}, MapError(err)
		}
		return nil, NewDocumentResponse(rec), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_documents",
		Description: "List tracked documents in registration order, optionally filtered by status.",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, in ListDocumentsParams) (*sdkmcp.CallToolResult, ListDocumentsResponse, error) {
		statuses := make([]document.Status, 0, len(in.Statuses))
		for _, s := range in.Statuses {
			st := document.Status(s)
			if !validStatus(st) {
				return nil, ListDocumentsResponse{}, &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("unknown status %q", s)}
			}
			statuses = append(statuses, st)
		}
		resp := ListDocumentsResponse{Documents: []DocumentResponse{}}
		for _, rec := range docs.ListByStatus(statuses...) {
			resp.Documents = append(resp.Documents, NewDocumentResponse(rec))
		}
		return nil, resp, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_document",
		Description: "Stop tracking a document. Its id is never reused.",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, in DocumentIDParams) (*sdkmcp.CallToolResult, DeleteDocumentResponse, error) {
		if err := docs.Delete(in.ID); err != nil {
			return nil, DeleteDocumentResponse{}, MapError(err)
		}
		return nil, DeleteDocumentResponse{ID: in.ID, Deleted: true}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_document_history",
		Description: "List the journaled activity of a document, newest first.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetDocumentHistoryParams) (*sdkmcp.CallToolResult, DocumentHistoryResponse, error) {
		limit := in.Limit
		if limit <= 0 {
			limit = defaultHistoryLimit
		}
		entries, err := docs.History(ctx, in.ID, limit)
		if err != nil {
			return nil, DocumentHistoryResponse{}, MapError(err)
		}
		resp := DocumentHistoryResponse{ID: in.ID, Entries: make([]HistoryEntryResponse, 0, len(entries))}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, newHistoryEntryResponse(e))
		}
		return nil, resp, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List journaled activity across all documents, newest first.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, RecentActivityResponse, error) {
		opts := activity.ListActivityOptions{Limit: in.Limit}
		if opts.Limit <= 0 {
			opts.Limit = defaultHistoryLimit
		}
		if in.Type != "" {
			t := activity.ActivityType(in.Type)
			opts.ActivityType = &t
		}
		entries, err := docs.RecentActivity(ctx, opts)
		if err != nil {
			return nil, RecentActivityResponse{}, MapError(err)
		}
		resp := RecentActivityResponse{Entries: make([]RecentActivityEntry, 0, len(entries))}
		for _, e := range entries {
			h := newHistoryEntryResponse(e)
			resp.Entries = append(resp.Entries, RecentActivityEntry{
				DocumentID: e.DocumentID,
				Type:       h.Type,
				Status:     h.Status,
				Summary:    h.Summary,
				CreatedAt:  h.CreatedAt,
			})
		}
		return nil, resp, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "document_summary",
		Description: "Count tracked documents per status.",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, SummaryResponse, error) {
		sum := docs.Summary()
		resp := SummaryResponse{Total: sum.Total, ByStatus: make(map[string]int, len(sum.ByStatus))}
		for st, n := range sum.ByStatus {
			resp.ByStatus[string(st)] = n
		}
		return nil, resp, nil
	})
}

func validStatus(st document.Status) bool {
	return slices.Contains(document.Statuses(), st)
}
