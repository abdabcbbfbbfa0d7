package hotreload

import "errors"

// ErrParse marks a source file that does not parse. Callers treat it like a
// rebuild requirement, but it stays distinguishable so diagnostics can say
// why the hot patch was abandoned.
var ErrParse = errors.New("source file does not parse")

// ErrUnknownFile marks an ApplyChange call for a path the session does not
// track: an excluded path, a test file, or a non-Go file.
var ErrUnknownFile = errors.New("file is not tracked")
