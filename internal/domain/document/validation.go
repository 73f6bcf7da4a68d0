package document

import (
	"fmt"
	"mime"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

// ValidateMetadata validates registration input against the configured limits.
func ValidateMetadata(meta Metadata, limits Limits) error {
	if strings.TrimSpace(meta.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMetadata)
	}
	if meta.SizeBytes <= 0 {
		return fmt.Errorf("%w: size must be positive", ErrInvalidMetadata)
	}
	if limits.MaxSizeBytes > 0 && meta.SizeBytes > limits.MaxSizeBytes {
		return fmt.Errorf("%w: file too large (%s), maximum size is %s",
			ErrInvalidMetadata, humanize.IBytes(uint64(meta.SizeBytes)), humanize.IBytes(uint64(limits.MaxSizeBytes)))
	}
	if len(limits.AcceptedTypes) > 0 && !slices.Contains(limits.AcceptedTypes, baseMediaType(meta.MIMEType)) {
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidMetadata, meta.MIMEType)
	}
	return nil
}

// ValidateEvent checks that an event is well formed.
func ValidateEvent(ev Event) error {
	switch ev.Kind {
	case EventProgress:
		if ev.Percent < 0 || ev.Percent > 100 {
			return fmt.Errorf("%w: percent %d out of range", ErrInvalidEvent, ev.Percent)
		}
	case EventCompleted, EventError:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, ev.Kind)
	}
	return nil
}

// baseMediaType strips parameters such as charset.
func baseMediaType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}
