package document

import (
	"fmt"
	"time"
)

// Apply computes the record that results from applying ev to current.
// It never mutates current. The boolean reports whether anything changed;
// stale progress is accepted without change.
func Apply(current Record, ev Event, now time.Time) (Record, bool, error) {
	if err := ValidateEvent(ev); err != nil {
		return current, false, err
	}
	if current.Status.IsTerminal() {
		return current, false, fmt.Errorf("%w: %s event on %s document", ErrInvalidTransition, ev.Kind, current.Status)
	}

	next := current.clone()
	switch ev.Kind {
	case EventProgress:
		switch current.Status {
		case StatusQueued:
			next.Status = StatusTransferring
		case StatusTransferring:
			if ev.Percent <= current.ProgressPercent {
				return current, false, nil
			}
		case StatusProcessing:
			return current, false, nil
		}
		next.ProgressPercent = ev.Percent
		if ev.Percent == 100 {
			next.Status = StatusProcessing
		}
		next.ErrorDetail = ""
	case EventCompleted:
		if current.Status != StatusProcessing {
			return current, false, fmt.Errorf("%w: completed event on %s document", ErrInvalidTransition, current.Status)
		}
		next.Status = StatusReady
		next.Subject = ev.Subject
		next.ErrorDetail = ""
		next.CompletedAt = &now
	case EventError:
		next.Status = StatusFailed
		next.ErrorDetail = ev.Detail
		next.CompletedAt = &now
	}
	return next, true, nil
}
