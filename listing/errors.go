package listing

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrFormatUnrecognized is matched by every *UnrecognizedFormatError.
var ErrFormatUnrecognized = errors.New("listing: unrecognized directory listing format")

// UnrecognizedFormatError is returned when no recognizer accepts the probe
// line of a listing.
type UnrecognizedFormatError struct {
	// ProbeLine is the line the recognizers were tested against
	ProbeLine string

	// Tried lists the names of the recognizers, in probing order
	Tried []string
}

// Error implements the error interface.
func (e *UnrecognizedFormatError) Error() string {
	return "listing: only MLSD, Unix-, DOS- and EPLF-style directory listings are supported, " +
		"and the server seems to be using another format. " +
		"Enable debug logging to see the transmitted listing, " +
		"then provide a custom recognizer (WithRecognizer) to parse it."
}

// Is reports whether target is ErrFormatUnrecognized.
func (e *UnrecognizedFormatError) Is(target error) bool {
	return target == ErrFormatUnrecognized
}

// LogValue exposes the diagnostics to slog handlers.
func (e *UnrecognizedFormatError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("probe_line", e.ProbeLine),
		slog.String("tried", strings.Join(e.Tried, ",")),
	)
}
