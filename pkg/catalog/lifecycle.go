package catalog

import "fmt"

// Lifecycle transitions over the closed three-state set. Both functions
// enumerate every state; the default branch only fires for a status
// outside the set, which is an error, never a silent no-op. A fourth
// state added to the constants therefore fails loudly until both
// functions learn about it.

// NextStatus returns the status after advancing: draft to published,
// published to archived. Advancing from archived is refused.
func NextStatus(s MaterialStatus) (MaterialStatus, error) {
	switch s {
	case StatusDraft:
		return StatusPublished, nil
	case StatusPublished:
		return StatusArchived, nil
	case StatusArchived:
		return "", fmt.Errorf("%w: cannot advance from archived", ErrInvalidTransition)
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, s)
	}
}

// PrevStatus returns the status after reverting: archived to published,
// published to draft. Reverting from draft is refused.
func PrevStatus(s MaterialStatus) (MaterialStatus, error) {
	switch s {
	case StatusArchived:
		return StatusPublished, nil
	case StatusPublished:
		return StatusDraft, nil
	case StatusDraft:
		return "", fmt.Errorf("%w: cannot revert from draft", ErrInvalidTransition)
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, s)
	}
}
