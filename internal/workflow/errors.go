package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/tree-sampler/internal/catalog"
)

// PreconditionError reports a step invoked before the state it needs exists.
// It means the driver called steps out of order and the session should abort.
type PreconditionError struct {
	Step    Step
	Current Step
	Missing []string
}

func (e *PreconditionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "workflow: %s invoked out of sequence", e.Step)
	if e.Current.Valid() && e.Current != e.Step {
		fmt.Fprintf(&b, " (session is at %s)", e.Current)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", strings.Join(e.Missing, ", "))
	}
	return b.String()
}

// SelectionError rejects a plot selection. The operator can fix it and resubmit.
type SelectionError struct {
	Requested int
	Available int
	Unknown   []int
	Duplicate []int
}

func (e *SelectionError) Error() string {
	switch {
	case len(e.Unknown) > 0:
		return fmt.Sprintf("workflow: gardens %v are not in the filtered set", e.Unknown)
	case len(e.Duplicate) > 0:
		return fmt.Sprintf("workflow: gardens %v selected more than once", e.Duplicate)
	default:
		return fmt.Sprintf("workflow: cannot sample %d gardens, only %d match", e.Requested, e.Available)
	}
}

// IsRecoverable reports whether the step should re-prompt instead of aborting.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	var pre *PreconditionError
	if errors.As(err, &pre) {
		return false
	}
	var sel *SelectionError
	return errors.As(err, &sel) || errors.Is(err, catalog.ErrInvalidInput)
}
