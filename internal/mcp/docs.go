package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `uploadtrack tracks documents submitted for ingestion.

Lifecycle: queued -> transferring -> processing -> ready | failed.

- register_document creates a record in queued. Oversized files or unsupported MIME types are rejected.
- handle_event reports transport progress (percent 0-100), completion (with an optional subject) or an error.
  Progress of 100 moves the document to processing; only a completed event moves it to ready.
  ready and failed are terminal: further events fail with INVALID_TRANSITION.
  To cancel, send an error event with detail "canceled".
- get_document, list_documents and document_summary read current state.
- get_document_history lists journaled activity, newest first.

Docs: uploadtrack://docs/lifecycle
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "uploadtrack://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Document lifecycle",
		Description: "Statuses, events and the transitions between them.",
		Content: `# Document lifecycle

| From | Event | To |
|------|-------|----|
| queued | progress < 100 | transferring |
| queued | progress = 100 | processing |
| transferring | progress above current, < 100 | transferring |
| transferring | progress = 100 | processing |
| processing | completed | ready |
| queued, transferring, processing | error | failed |

Progress at or below the current value is ignored without error.
Progress while processing is ignored.
Any event on a ready or failed document is rejected.

## Fields

- progress_percent: 0-100, meaningful while transferring or processing.
- subject: set when the document becomes ready.
- error_detail: set when the document fails.
- completed_at: set once, on entry to ready or failed.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
