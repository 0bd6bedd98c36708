package listing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dosLineRegex matches "date time <DIR>|size name".
// Example: "12-14-23  12:22PM           1037794 large-document.pdf"
var dosLineRegex = regexp.MustCompile(`^(\d{1,4}[-/]\d{1,2}[-/]\d{2,4})\s+(\d{1,2}:\d{2}(?i:[AP]M)?)\s+(?:(<DIR>)|([0-9]+))\s+(\S.*)$`)

var dosTimeLayouts = []string{
	"01-02-06 03:04PM",
	"01-02-2006 03:04PM",
	"01/02/06 03:04PM",
	"01/02/2006 03:04PM",
	"01-02-06 15:04",
	"01-02-2006 15:04",
	"2006-01-02 15:04",
	"2006-01-02 03:04PM",
}

// DOSRecognizer handles DOS/Windows (IIS) style listings.
type DOSRecognizer struct{}

// Name returns "dos".
func (r *DOSRecognizer) Name() string { return "dos" }

// Recognizes reports whether line has the date, time, size and name
// columns, starting with a numeric date such as 12-14-23 or 2023-12-14.
func (r *DOSRecognizer) Recognizes(line string) bool {
	if len(line) < 2 || !isDigit(line[0]) || !isDigit(line[1]) {
		return false
	}
	return dosLineRegex.MatchString(line)
}

// ParseEntry parses one DOS listing line. "." and ".." are not parsed.
func (r *DOSRecognizer) ParseEntry(line string) (*Entry, bool) {
	groups := dosLineRegex.FindStringSubmatch(strings.TrimSpace(line))
	if groups == nil {
		return nil, false
	}

	name := groups[5]
	if isDotEntry(name) {
		return nil, false
	}

	entry := &Entry{
		Name:       name,
		RawModTime: groups[1] + " " + groups[2],
		Raw:        line,
	}

	if groups[3] == "<DIR>" {
		entry.Type = TypeDir
	} else {
		size, err := strconv.ParseInt(groups[4], 10, 64)
		if err != nil {
			return nil, false
		}
		entry.Type = TypeFile
		entry.Size = size
	}

	entry.ModTime = parseDOSTime(entry.RawModTime)
	return entry, true
}

// PostProcess returns entries unchanged.
func (r *DOSRecognizer) PostProcess(entries []*Entry) []*Entry {
	return entries
}

func parseDOSTime(s string) time.Time {
	s = strings.ToUpper(s)
	for _, layout := range dosTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
