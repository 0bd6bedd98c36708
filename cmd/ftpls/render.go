package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/gonzalop/ftplist/listing"
)

// outputEntry is the JSON and YAML form of a listing entry.
type outputEntry struct {
	Name        string            `json:"name" yaml:"name"`
	Type        string            `json:"type" yaml:"type"`
	Size        int64             `json:"size" yaml:"size"`
	ModTime     string            `json:"mod_time,omitempty" yaml:"mod_time,omitempty"`
	RawModTime  string            `json:"raw_mod_time,omitempty" yaml:"raw_mod_time,omitempty"`
	Permissions string            `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Link        string            `json:"link,omitempty" yaml:"link,omitempty"`
	User        string            `json:"user,omitempty" yaml:"user,omitempty"`
	Group       string            `json:"group,omitempty" yaml:"group,omitempty"`
	UniqueID    string            `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
	Facts       map[string]string `json:"facts,omitempty" yaml:"facts,omitempty"`
}

func toOutput(entries []*listing.Entry) []outputEntry {
	out := make([]outputEntry, 0, len(entries))
	for _, e := range entries {
		o := outputEntry{
			Name:       e.Name,
			Type:       e.Type,
			Size:       e.Size,
			RawModTime: e.RawModTime,
			Link:       e.Link,
			User:       e.User,
			Group:      e.Group,
			UniqueID:   e.UniqueID,
			Facts:      e.Facts,
		}
		if !e.ModTime.IsZero() {
			o.ModTime = e.ModTime.Format(time.RFC3339)
		}
		if e.Permissions != nil {
			o.Permissions = e.Permissions.String()
		}
		out = append(out, o)
	}
	return out
}

// render writes entries to w in the given format.
func render(w io.Writer, entries []*listing.Entry, format string, color bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toOutput(entries))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toOutput(entries)); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		return renderTable(w, entries, color)
	default:
		return fmt.Errorf("unknown format %q (expected table, json, yaml)", format)
	}
}

// tableStyles colors the table. Without color every style is plain.
type tableStyles struct {
	plain  lipgloss.Style
	header lipgloss.Style
	dir    lipgloss.Style
	link   lipgloss.Style
	dim    lipgloss.Style
}

func newTableStyles(w io.Writer, color bool) tableStyles {
	r := lipgloss.NewRenderer(w)
	if !color {
		return tableStyles{
			plain:  r.NewStyle(),
			header: r.NewStyle(),
			dir:    r.NewStyle(),
			link:   r.NewStyle(),
			dim:    r.NewStyle(),
		}
	}
	return tableStyles{
		plain:  r.NewStyle(),
		header: r.NewStyle().Bold(true).Underline(true),
		dir:    r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		link:   r.NewStyle().Foreground(lipgloss.Color("14")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

var tableHeader = []string{"TYPE", "PERMS", "SIZE", "MODIFIED", "NAME"}

func renderTable(w io.Writer, entries []*listing.Entry, color bool) error {
	styles := newTableStyles(w, color)

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, tableRow(e))
	}

	widths := make([]int, len(tableHeader))
	for i, h := range tableHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	writeRow(&b, tableHeader, widths, func(int) lipgloss.Style { return styles.header })
	for i, row := range rows {
		e := entries[i]
		writeRow(&b, row, widths, func(col int) lipgloss.Style {
			switch {
			case col == len(row)-1 && e.IsDir():
				return styles.dir
			case col == len(row)-1 && e.IsLink():
				return styles.link
			case col == 1 || col == 3:
				return styles.dim
			default:
				return styles.plain
			}
		})
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeRow pads each cell to its column width before styling it, so escape
// sequences do not count towards the width. SIZE is right-aligned and the
// last column is not padded.
func writeRow(b *strings.Builder, cells []string, widths []int, style func(col int) lipgloss.Style) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		switch {
		case i == len(cells)-1:
		case i == 2:
			cell = runewidth.FillLeft(cell, widths[i])
		default:
			cell = runewidth.FillRight(cell, widths[i])
		}
		b.WriteString(style(i).Render(cell))
	}
	b.WriteByte('\n')
}

func tableRow(e *listing.Entry) []string {
	perms := "-"
	if e.Permissions != nil {
		perms = e.Permissions.String()
	}

	modified := e.RawModTime
	if !e.ModTime.IsZero() {
		modified = e.ModTime.Format("2006-01-02 15:04")
	}
	if modified == "" {
		modified = "-"
	}

	name := e.Name
	if e.Link != "" {
		name += " -> " + e.Link
	}

	return []string{e.Type, perms, strconv.FormatInt(e.Size, 10), modified, name}
}

// useColor reports whether table output to w should be colored.
func useColor(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
