package listing

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alwaysRecognizer accepts every line and turns it into a file entry.
type alwaysRecognizer struct{}

func (r *alwaysRecognizer) Name() string { return "always" }
func (r *alwaysRecognizer) Recognizes(line string) bool { return true }
func (r *alwaysRecognizer) ParseEntry(line string) (*Entry, bool) {
	return &Entry{Name: line, Type: TypeFile, Raw: line}, true
}
func (r *alwaysRecognizer) PostProcess(entries []*Entry) []*Entry { return entries }

func fixedNow() time.Time {
	return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func TestParse_EmptyListing(t *testing.T) {
	t.Parallel()
	inputs := map[string]string{
		"empty":              "",
		"newlines only":      "\n\n\n",
		"crlf only":          "\r\n\r\n",
		"whitespace lines":   "   \n\t\n",
		"total line":         "total 0",
		"total and blank":    "total 8\r\n   \r\n",
		"multiple meta rows": "total 8\ntotal 12\n\n",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			entries, err := Parse(input)
			require.NoError(t, err)
			assert.NotNil(t, entries)
			assert.Empty(t, entries)
		})
	}
}

func TestParse_UnixSingleLine(t *testing.T) {
	t.Parallel()
	entries, err := Parse("-rw-r--r-- 1 user group 4096 Jan 1 12:00 file.txt\n")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "file.txt", e.Name)
	assert.Equal(t, TypeFile, e.Type)
	assert.Equal(t, int64(4096), e.Size)
	assert.Equal(t, "user", e.User)
	assert.Equal(t, "group", e.Group)
	assert.Equal(t, 1, e.HardLinks)
	assert.Equal(t, "Jan 1 12:00", e.RawModTime)
	require.NotNil(t, e.Permissions)
	assert.Equal(t, "644", e.Permissions.String())
}

func TestParse_TotalLineIsDropped(t *testing.T) {
	t.Parallel()
	withTotal, err := Parse("total 8\n-rw-r--r-- 1 user group 4096 Jan 1 12:00 file.txt\n")
	require.NoError(t, err)
	withoutTotal, err := Parse("-rw-r--r-- 1 user group 4096 Jan 1 12:00 file.txt\n")
	require.NoError(t, err)

	require.Len(t, withTotal, 1)
	assert.Equal(t, withoutTotal[0].Name, withTotal[0].Name)
	assert.Equal(t, withoutTotal[0].Size, withTotal[0].Size)
}

func TestParse_MLSDFallback(t *testing.T) {
	t.Parallel()
	line := "type=file;size=10; notes.txt"
	for _, r := range DefaultRecognizers()[:3] {
		assert.False(t, r.Recognizes(line), "%s should not recognize the line", r.Name())
	}

	p := New()
	require.NotNil(t, p.Detect(line+"\n"))
	assert.Equal(t, "mlsd", p.Detect(line+"\n").Name())

	entries, err := p.Parse(line + "\n")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].Name)
	assert.Equal(t, TypeFile, entries[0].Type)
	assert.Equal(t, int64(10), entries[0].Size)
}

// stubRecognizer accepts every line and tags entries with its name.
type stubRecognizer struct{ name string }

func (r *stubRecognizer) Name() string { return r.name }
func (r *stubRecognizer) Recognizes(line string) bool { return true }
func (r *stubRecognizer) ParseEntry(line string) (*Entry, bool) {
	return &Entry{Name: line, Type: TypeFile, Facts: map[string]string{"by": r.name}}, true
}
func (r *stubRecognizer) PostProcess(entries []*Entry) []*Entry { return entries }

func TestParse_RecognizerPriority(t *testing.T) {
	t.Parallel()
	p := New(WithRecognizers(&stubRecognizer{name: "first"}, &stubRecognizer{name: "second"}))
	assert.Equal(t, "first", p.Detect("anything").Name())

	entries, err := p.Parse("anything\n")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Facts["by"])
}

func TestParse_DetectsEachFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want string
	}{
		{"12-14-23  12:22PM           1037794 large-document.pdf", "dos"},
		{"2023-12-14  15:04           42 file.txt", "dos"},
		{"-rw-r--r-- 1 user group 4096 Jan 1 12:00 file.txt", "unix"},
		{"755 2 1000 1000 4096 Jan 1 12:00 docs", "unix"},
		{"644 1 1000 1000 512 Jan 1 2020 file.txt", "unix"},
		{"+i8388621.48594,m825718503,r,s280,\tdjb.html", "eplf"},
		{"type=file;size=10; notes.txt", "mlsd"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r := p.Detect(tt.line)
			require.NotNil(t, r)
			assert.Equal(t, tt.want, r.Name())
		})
	}
}

func TestParse_NumericModeUnix(t *testing.T) {
	t.Parallel()
	raw := "755 2 1000 1000 4096 Jan 1 12:00 docs\n" +
		"644 1 1000 1000 512 Jan 1 2020 file.txt\n"

	entries, err := New().Parse(raw)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "docs", entries[0].Name)
	assert.Equal(t, int64(4096), entries[0].Size)
	assert.Equal(t, "1000", entries[0].User)
	assert.Equal(t, "1000", entries[0].Group)
	assert.Equal(t, "file.txt", entries[1].Name)
	assert.Equal(t, int64(512), entries[1].Size)
}

func TestParse_NonBreakingSpaceIsUnrecognized(t *testing.T) {
	t.Parallel()
	_, err := New().Parse("-rw-r--r--\u00a01 user group 4096 Jan 1 12:00 file.txt\n")
	assert.ErrorIs(t, err, ErrFormatUnrecognized)
}

func TestParse_DefaultOrder(t *testing.T) {
	t.Parallel()
	var names []string
	for _, r := range New().Recognizers() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"dos", "unix", "eplf", "mlsd"}, names)
}

func TestParse_PartialFailure(t *testing.T) {
	t.Parallel()
	raw := "-rw-r--r-- 1 user group 10 Jan 1 2020 a.txt\r\n" +
		"this line is garbage\r\n" +
		"-rw-r--r-- 1 user group 20 Jan 1 2020 b.txt\r\n" +
		"drwxr-xr-x 2 user group 4096 Jan 1 2020 c\r\n"

	entries, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.txt", entries[1].Name)
	assert.Equal(t, "c", entries[2].Name)
	assert.True(t, entries[2].IsDir())
}

func TestParse_ProbeLineIsLastLine(t *testing.T) {
	t.Parallel()
	raw := "01-02-03  10:00AM  5 dos-file\n" +
		"-rw-r--r-- 1 user group 1 Jan 1 2020 unix-file\n"

	p := New()
	assert.Equal(t, "unix", p.Detect(raw).Name())

	entries, err := p.Parse(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the DOS line must be dropped, not reinterpreted")
	assert.Equal(t, "unix-file", entries[0].Name)
}

func TestParse_UnparseableProbeLineIsTolerated(t *testing.T) {
	t.Parallel()
	raw := "-rw-r--r-- 1 user group 10 Jan 1 2020 good.txt\n" +
		"-rw-r--r-- 1 user group notasize Jan 1 12:00 bad.txt\n"

	entries, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good.txt", entries[0].Name)
}

func TestParse_UnrecognizedFormat(t *testing.T) {
	t.Parallel()
	raw := "-rw-r--r-- 1 user group 10 Jan 1 2020 good.txt\nthis is not a listing\n"

	entries, err := Parse(raw)
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.True(t, errors.Is(err, ErrFormatUnrecognized))

	var ufe *UnrecognizedFormatError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, "this is not a listing", ufe.ProbeLine)
	assert.Equal(t, []string{"dos", "unix", "eplf", "mlsd"}, ufe.Tried)

	msg := err.Error()
	for _, family := range []string{"MLSD", "Unix", "DOS", "EPLF"} {
		assert.Contains(t, msg, family)
	}
	assert.Contains(t, msg, "debug logging")
	assert.Contains(t, msg, "custom recognizer")
}

func TestParse_CustomRecognizerRescuesListing(t *testing.T) {
	t.Parallel()
	raw := "this is not a listing\n"

	_, err := New().Parse(raw)
	require.ErrorIs(t, err, ErrFormatUnrecognized)

	p := New(WithRecognizer(&alwaysRecognizer{}))
	assert.Len(t, p.Recognizers(), 5)
	assert.Equal(t, "always", p.Recognizers()[0].Name())

	entries, err := p.Parse(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "this is not a listing", entries[0].Name)
}

func TestParse_WithRecognizersReplacesSet(t *testing.T) {
	t.Parallel()
	p := New(WithRecognizers(&UnixRecognizer{}))

	_, err := p.Parse("type=file;size=10; notes.txt")
	var ufe *UnrecognizedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, []string{"unix"}, ufe.Tried)
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()
	p := New(WithRecognizers(
		&DOSRecognizer{},
		&UnixRecognizer{Now: fixedNow},
		&EPLFRecognizer{},
		&MLSDRecognizer{},
	))
	raw := "total 12\n" +
		"drwxr-xr-x   2 user  group     4096 Dec 20 10:30 .\n" +
		"drwxr-xr-x   2 user  group     4096 Dec 20 10:30 ..\n" +
		"-rw-r--r--   1 user  group     1024 Dec 20 10:30 file.txt\n" +
		"lrwxrwxrwx   1 user  group       11 Dec 20 10:30 link -> file.txt\n"

	first, err := p.Parse(raw)
	require.NoError(t, err)
	second, err := p.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestParse_DebugLogOnFailure(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := New(WithLogger(logger)).Parse("???\n")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "no listing format matched")
	assert.Contains(t, buf.String(), "probe_line=???")
	assert.Contains(t, buf.String(), "tried=dos,unix,eplf,mlsd")
}

func TestRecognizers_TotalOnEmptyInput(t *testing.T) {
	t.Parallel()
	for _, r := range DefaultRecognizers() {
		t.Run(r.Name(), func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, r.Recognizes(""))
				entry, ok := r.ParseEntry("")
				assert.False(t, ok)
				assert.Nil(t, entry)
				assert.Empty(t, r.PostProcess(nil))
			})
		})
	}
}
