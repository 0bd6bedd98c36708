package listing

import (
	"strconv"
	"strings"
	"time"
)

// EPLFRecognizer handles the Easily Parsed LIST Format.
// Format: +facts\tname or +facts name
// Facts are comma-separated, e.g.: i=inode, m=mtime, s=size, /, r, up=mode.
// Example: "+i8388621.48594,m825718503,r,s280,\tdjb.html"
type EPLFRecognizer struct{}

// Name returns "eplf".
func (r *EPLFRecognizer) Name() string { return "eplf" }

// Recognizes reports whether line starts with '+' and separates facts from a name.
func (r *EPLFRecognizer) Recognizes(line string) bool {
	_, name, ok := splitEPLF(line)
	return ok && name != ""
}

// ParseEntry parses one EPLF line.
func (r *EPLFRecognizer) ParseEntry(line string) (*Entry, bool) {
	facts, name, ok := splitEPLF(line)
	if !ok || name == "" {
		return nil, false
	}

	entry := &Entry{
		Name: name,
		Type: TypeFile,
		Raw:  line,
	}

	for _, fact := range strings.Split(facts, ",") {
		if fact == "" {
			continue
		}

		switch fact[0] {
		case '/':
			entry.Type = TypeDir
		case 's':
			if size, err := strconv.ParseInt(fact[1:], 10, 64); err == nil {
				entry.Size = size
			}
		case 'm':
			entry.RawModTime = fact[1:]
			if secs, err := strconv.ParseInt(fact[1:], 10, 64); err == nil {
				entry.ModTime = time.Unix(secs, 0).UTC()
			}
		case 'i':
			entry.UniqueID = fact[1:]
		case 'u':
			if mode, ok := strings.CutPrefix(fact, "up"); ok && len(mode) >= 3 && isNumericMode(mode) {
				entry.Permissions = parseOctalPermissions(mode)
			}
		}
	}

	return entry, true
}

// PostProcess collapses entries that share a unique id, keeping the first.
// Entries without an id are kept as they are.
func (r *EPLFRecognizer) PostProcess(entries []*Entry) []*Entry {
	seen := make(map[string]bool)
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.UniqueID != "" {
			if seen[e.UniqueID] {
				continue
			}
			seen[e.UniqueID] = true
		}
		out = append(out, e)
	}
	return out
}

// splitEPLF splits "+facts<TAB or space>name".
func splitEPLF(line string) (facts, name string, ok bool) {
	if !strings.HasPrefix(line, "+") {
		return "", "", false
	}
	line = line[1:]

	idx := strings.IndexAny(line, "\t ")
	if idx == -1 {
		return "", "", false
	}
	return line[:idx], strings.TrimSpace(line[idx+1:]), true
}
