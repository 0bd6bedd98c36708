package ftplist

import (
	"errors"
	"fmt"
)

// ErrListingTooLarge is returned when a directory listing exceeds the size
// set with WithMaxListingSize.
var ErrListingTooLarge = errors.New("ftp: directory listing exceeds size limit")

// ProtocolError represents an unexpected reply from the server, with the
// command that caused it.
type ProtocolError struct {
	// Command is the FTP command that was sent (e.g., "MLSD")
	Command string

	// Response is the message part of the reply (e.g., "Permission denied")
	Response string

	// Code is the numeric FTP reply code (e.g., 550)
	Code int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Response, e.Code)
}

// IsTemporary returns true if the error is a transient failure (4xx).
// Callers may retry the command later.
func (e *ProtocolError) IsTemporary() bool {
	return e.Code >= 400 && e.Code < 500
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *ProtocolError) IsPermanent() bool {
	return e.Code >= 500 && e.Code < 600
}

// isNotImplemented reports whether err is a 500/502 reply, which servers
// send for commands they do not know.
func isNotImplemented(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && (pe.Code == 500 || pe.Code == 502)
}
