package listing

import (
	"strconv"
	"strings"
	"time"
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// UnixRecognizer handles "ls -l" style listings.
//
// Supported layouts:
//
//   - 9-field: perms links owner group size month day time/year name
//   - 8-field: perms links owner size month day time/year name (no group)
//   - numeric perms: 644 links owner group size month day time/year name
type UnixRecognizer struct {
	// Now returns the current time. It resolves the year of entries that
	// only carry a time of day. Defaults to time.Now.
	Now func() time.Time
}

// Name returns "unix".
func (r *UnixRecognizer) Name() string { return "unix" }

// Recognizes reports whether line has a mode column and enough fields.
func (r *UnixRecognizer) Recognizes(line string) bool {
	fields, _ := fieldsWithOffsets(line)
	if len(fields) < 8 {
		return false
	}
	return isSymbolicMode(fields[0]) || isNumericMode(fields[0])
}

// ParseEntry parses one Unix listing line.
func (r *UnixRecognizer) ParseEntry(line string) (*Entry, bool) {
	fields, offsets := fieldsWithOffsets(line)
	if len(fields) < 8 {
		return nil, false
	}

	perms := fields[0]
	symbolic := isSymbolicMode(perms)
	if !symbolic && !isNumericMode(perms) {
		return nil, false
	}

	sizeIdx := unixSizeIndex(fields)
	if sizeIdx < 0 {
		return nil, false
	}
	nameIdx := sizeIdx + 4

	size, err := strconv.ParseInt(fields[sizeIdx], 10, 64)
	if err != nil {
		return nil, false
	}

	entry := &Entry{
		Size:       size,
		User:       fields[2],
		RawModTime: strings.Join(fields[sizeIdx+1:sizeIdx+4], " "),
		Raw:        line,
	}
	if sizeIdx == 4 {
		entry.Group = fields[3]
	}
	if links, err := strconv.Atoi(fields[1]); err == nil {
		entry.HardLinks = links
	}

	if symbolic {
		entry.Type = unixType(perms[0])
		entry.Permissions = parseSymbolicPermissions(perms)
	} else {
		// Numeric permissions carry no type information.
		entry.Type = TypeFile
		entry.Permissions = parseOctalPermissions(perms)
	}

	name := strings.TrimRight(line[offsets[nameIdx]:], " \t\r")
	if entry.Type == TypeLink {
		if before, after, ok := strings.Cut(name, " -> "); ok {
			name = before
			entry.Link = after
		}
	}
	if name == "" {
		return nil, false
	}
	entry.Name = name

	entry.ModTime = r.parseTime(fields[sizeIdx+1], fields[sizeIdx+2], fields[sizeIdx+3])
	return entry, true
}

// PostProcess removes the "." and ".." entries.
func (r *UnixRecognizer) PostProcess(entries []*Entry) []*Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if !isDotEntry(e.Name) {
			out = append(out, e)
		}
	}
	return out
}

// unixSizeIndex returns the index of the size column, or -1.
// A valid month after the size decides between the 9- and 8-field
// layouts; listings with localized month names fall back to the first
// numeric candidate.
func unixSizeIndex(fields []string) int {
	candidates := []int{4, 3}
	for _, idx := range candidates {
		if idx+4 < len(fields) && isNumber(fields[idx]) && isMonth(fields[idx+1]) {
			return idx
		}
	}
	for _, idx := range candidates {
		if idx+4 < len(fields) && isNumber(fields[idx]) {
			return idx
		}
	}
	return -1
}

func (r *UnixRecognizer) parseTime(month, day, clock string) time.Time {
	m, ok := monthsByName[strings.ToLower(month)]
	if !ok {
		return time.Time{}
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}
	}

	if hh, mm, ok := strings.Cut(clock, ":"); ok {
		hour, err1 := strconv.Atoi(hh)
		minute, err2 := strconv.Atoi(mm)
		if err1 != nil || err2 != nil {
			return time.Time{}
		}
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		current := now().UTC()
		t := time.Date(current.Year(), m, d, hour, minute, 0, 0, time.UTC)
		// Servers print the time of day only for recent entries, so a date
		// in the future belongs to the previous year.
		if t.After(current.Add(24 * time.Hour)) {
			t = t.AddDate(-1, 0, 0)
		}
		return t
	}

	year, err := strconv.Atoi(clock)
	if err != nil || len(clock) != 4 {
		return time.Time{}
	}
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

func unixType(c byte) string {
	switch c {
	case 'd':
		return TypeDir
	case 'l':
		return TypeLink
	case '-', 'f', 'b', 'c':
		return TypeFile
	default:
		return TypeUnknown
	}
}

// isSymbolicMode matches "drwxr-xr-x" with an optional ACL/xattr suffix.
func isSymbolicMode(s string) bool {
	if len(s) == 11 && strings.ContainsRune("+@.", rune(s[10])) {
		s = s[:10]
	}
	if len(s) != 10 || !strings.ContainsRune("-dlbcpsDf", rune(s[0])) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !strings.ContainsRune("-rwxsStTlL", rune(s[i])) {
			return false
		}
	}
	return true
}

func isNumericMode(s string) bool {
	if len(s) < 3 || len(s) > 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}

func parseSymbolicPermissions(s string) *UnixPermissions {
	return &UnixPermissions{
		User:  permissionTriplet(s[1:4]),
		Group: permissionTriplet(s[4:7]),
		World: permissionTriplet(s[7:10]),
	}
}

func permissionTriplet(s string) int {
	var p int
	if s[0] != '-' {
		p |= PermRead
	}
	if s[1] != '-' {
		p |= PermWrite
	}
	// s and t imply execute; S and T mean the special bit without execute.
	switch s[2] {
	case 'x', 's', 't':
		p |= PermExecute
	}
	return p
}

func parseOctalPermissions(s string) *UnixPermissions {
	s = s[len(s)-3:]
	return &UnixPermissions{
		User:  int(s[0] - '0'),
		Group: int(s[1] - '0'),
		World: int(s[2] - '0'),
	}
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isMonth(s string) bool {
	_, ok := monthsByName[strings.ToLower(s)]
	return ok
}

// fieldsWithOffsets works like strings.Fields but also returns the byte
// offset of each field in s.
func fieldsWithOffsets(s string) ([]string, []int) {
	var fields []string
	var offsets []int
	start := -1
	for i := 0; i < len(s); i++ {
		space := s[i] == ' ' || s[i] == '\t'
		switch {
		case space && start >= 0:
			fields = append(fields, s[start:i])
			offsets = append(offsets, start)
			start = -1
		case !space && start < 0:
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, s[start:])
		offsets = append(offsets, start)
	}
	return fields, offsets
}
