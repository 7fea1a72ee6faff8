// Package ease drives the EASE GLLViewer application through one complete
// export cycle per speaker. The viewer exposes no programmatic API, so every
// interaction goes through window lookups and synthetic keystrokes; the
// Port interface narrows that surface so the protocol state machine stays
// testable against fakes.
package ease

import "context"

// Port is the control surface the driver needs from the vendor application.
//
// Every method that addresses a window waits for it to become visible before
// acting; the wait timeout and implied focus handling belong to the
// implementation. The native implementation translates calls into win32
// window messages and keystrokes, tests substitute an in-memory fake.
type Port interface {
	// Launch starts the vendor executable as a new process and attaches to
	// it. No other method may be called before a successful Launch.
	Launch(ctx context.Context, binary string) error

	// OpenFile types a path into the file-open sub-window identified by
	// dialog and submits it.
	OpenFile(ctx context.Context, dialog, path string) error

	// SaveFile clears the filename field of an export dialog, types the
	// target path, submits, and waits for the dialog to close.
	SaveFile(ctx context.Context, dialog, path string) error

	// SendKeys sends a keystroke accelerator sequence to a window.
	SendKeys(ctx context.Context, window, keys string) error

	// FindResultsView locates the data view window. It tries the expected
	// title first, then falls back to the first open window exposing
	// non-empty window text. It returns the title it settled on, plus the
	// list of titles examined when no view could be identified.
	FindResultsView(ctx context.Context, expectedTitle string) (title string, tried []string, err error)

	// SelectCombo selects an item by display label in a named combo box.
	SelectCombo(ctx context.Context, window, control, item string) error

	// Click clicks a named button-like control. Used for controls that look
	// like checkboxes or radio buttons but only react to clicks.
	Click(ctx context.Context, window, control string) error

	// WaitQuiescent blocks until the vendor process CPU usage drops below
	// the idle threshold, the only available signal that an asynchronous
	// internal computation has finished.
	WaitQuiescent(ctx context.Context) error

	// Kill force-terminates the vendor process. Safe to call repeatedly and
	// before Launch.
	Kill()
}
