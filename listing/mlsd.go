package listing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// mlsdFactRegex matches a listing line that starts with a fact ("type=file;").
var mlsdFactRegex = regexp.MustCompile(`^\S+=\S+;`)

// MLSDRecognizer handles machine-readable listings (RFC 3659 MLSD).
// Format: "fact1=value1;fact2=value2; name"
//
// MLSD recognizes a line that starts with a space as a bare name with no
// facts, so it must be probed after every other recognizer.
type MLSDRecognizer struct{}

// Name returns "mlsd".
func (r *MLSDRecognizer) Name() string { return "mlsd" }

// Recognizes reports whether line starts with a fact or with a space.
func (r *MLSDRecognizer) Recognizes(line string) bool {
	return mlsdFactRegex.MatchString(line) || strings.HasPrefix(line, " ")
}

// ParseEntry parses one MLSD line. Entries of type cdir and pdir are not parsed.
func (r *MLSDRecognizer) ParseEntry(line string) (*Entry, bool) {
	factsStr, name, ok := strings.Cut(line, " ")
	if !ok || name == "" {
		return nil, false
	}

	facts := make(map[string]string)
	for _, pair := range strings.Split(factsStr, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		facts[strings.ToLower(key)] = value
	}

	entry := &Entry{
		Name:  name,
		Type:  TypeUnknown,
		Facts: facts,
		Raw:   line,
	}

	if typeVal, ok := facts["type"]; ok {
		typ, link, skip := mlsdType(typeVal)
		if skip {
			return nil, false
		}
		entry.Type = typ
		entry.Link = link
	}

	if sizeVal, ok := facts["size"]; ok {
		if size, err := strconv.ParseInt(sizeVal, 10, 64); err == nil {
			entry.Size = size
		}
	} else if sizdVal, ok := facts["sizd"]; ok {
		if size, err := strconv.ParseInt(sizdVal, 10, 64); err == nil {
			entry.Size = size
		}
	}

	if modifyVal, ok := facts["modify"]; ok {
		entry.RawModTime = modifyVal
		entry.ModTime = parseMLSxTime(modifyVal)
	}

	if modeVal, ok := facts["unix.mode"]; ok && len(modeVal) >= 3 && isNumericMode(modeVal[len(modeVal)-3:]) {
		entry.Permissions = parseOctalPermissions(modeVal)
	}

	entry.User = firstFact(facts, "unix.owner", "unix.uid")
	entry.Group = firstFact(facts, "unix.group", "unix.gid")
	entry.UniqueID = facts["unique"]

	return entry, true
}

// PostProcess resolves symbolic link targets through shared unique ids and
// drops entries whose name points outside the listed directory.
func (r *MLSDRecognizer) PostProcess(entries []*Entry) []*Entry {
	targets := make(map[string]*Entry)
	for _, e := range entries {
		if !e.IsLink() && e.UniqueID != "" {
			targets[e.UniqueID] = e
		}
	}

	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsLink() && e.UniqueID != "" && e.Link == "" {
			if target, ok := targets[e.UniqueID]; ok {
				resolved := *e
				resolved.Link = target.Name
				e = &resolved
			}
		}
		if strings.Contains(e.Name, "/") {
			continue
		}
		out = append(out, e)
	}
	return out
}

// mlsdType maps a "type" fact value to an entry type. skip is true for the
// current and parent directory entries.
func mlsdType(value string) (typ, link string, skip bool) {
	lower := strings.ToLower(value)
	switch lower {
	case "file":
		return TypeFile, "", false
	case "dir":
		return TypeDir, "", false
	case "cdir", "pdir":
		return "", "", true
	case "os.unix=symlink":
		return TypeLink, "", false
	}
	if strings.HasPrefix(lower, "os.unix=slink:") {
		return TypeLink, value[len("os.unix=slink:"):], false
	}
	return TypeUnknown, "", false
}

// parseMLSxTime parses YYYYMMDDHHMMSS with optional fractional seconds.
func parseMLSxTime(value string) time.Time {
	timestamp, fraction, _ := strings.Cut(value, ".")
	if len(timestamp) != 14 {
		return time.Time{}
	}
	t, err := time.Parse("20060102150405", timestamp)
	if err != nil {
		return time.Time{}
	}
	if fraction != "" && isNumber(fraction) {
		if ms, err := strconv.Atoi((fraction + "000")[:3]); err == nil {
			t = t.Add(time.Duration(ms) * time.Millisecond)
		}
	}
	return t.UTC()
}

func firstFact(facts map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := facts[k]; ok {
			return v
		}
	}
	return ""
}
