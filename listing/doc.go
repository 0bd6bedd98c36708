// Package listing parses FTP directory listings.
//
// Directory listings returned by LIST are not standardized. Servers emit
// Unix "ls -l" style lines, DOS/Windows style lines, EPLF lines or, for
// MLSD, machine-readable fact lines, without saying which one they use.
// A Parser picks exactly one format for a whole listing and applies it to
// every line.
//
// # Format Detection
//
// Blank lines and "total" summary lines are dropped first. The last
// remaining line is then offered to each Recognizer in order; the first one
// that recognizes it parses every line of the listing. The default order is
//
//	dos, unix, eplf, mlsd
//
// MLSD comes last because it accepts a line that is only a file name.
//
// Lines the selected recognizer cannot parse are dropped. If no recognizer
// accepts the probe line, Parse returns an *UnrecognizedFormatError:
//
//	entries, err := listing.Parse(raw)
//	if errors.Is(err, listing.ErrFormatUnrecognized) {
//	    var ufe *listing.UnrecognizedFormatError
//	    errors.As(err, &ufe)
//	    log.Printf("unknown format, probe line %q", ufe.ProbeLine)
//	}
//
// # Custom Formats
//
// A custom Recognizer can be prepended so it takes priority over the
// built-in ones:
//
//	p := listing.New(listing.WithRecognizer(&VMSRecognizer{}))
//	entries, err := p.Parse(raw)
package listing
