package dispatch

import "errors"

var (
	// ErrTargetItemMissing marks a dispatch that can never succeed: the
	// item the notification refers to no longer exists. The scheduled
	// sweep discards such events instead of retrying them.
	ErrTargetItemMissing = errors.New("dispatch: notification target item missing")

	// ErrUnsupportedTag marks a template referencing a tag outside the
	// supported set. It fails the single dispatch attempt that hit it.
	ErrUnsupportedTag = errors.New("dispatch: unsupported template tag")
)
