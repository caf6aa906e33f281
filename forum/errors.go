package forum

import "errors"

var (
	// ErrNotFound signals that a referenced section, branch, topic or post id
	// does not resolve. It propagates to the caller unchanged; retrying is
	// pointless.
	ErrNotFound = errors.New("forum: not found")

	// ErrUnauthenticated signals a mutating call without an acting principal.
	// The transport layer is expected to have authenticated already, so this
	// is a precondition violation rather than a recoverable condition.
	ErrUnauthenticated = errors.New("forum: no acting principal")
)
