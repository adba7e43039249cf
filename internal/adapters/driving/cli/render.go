package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

// reportStyles contains the lipgloss styles used for terminal reports.
type reportStyles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Score   lipgloss.Style
	Box     lipgloss.Style
}

func newReportStyles() reportStyles {
	return reportStyles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")), // Purple
		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#06B6D4")). // Cyan
			MarginTop(1),
		Label: lipgloss.NewStyle().
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
		Score: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9E2AF")), // Yellow
		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1),
	}
}

// renderReport formats an analysis record for the terminal.
func renderReport(record *domain.AnalysisRecord) string {
	st := newReportStyles()
	meta := record.Metadata

	header := []string{
		st.Title.Render("Repository Analysis"),
		field(st, "Location", meta.Location),
		field(st, "Ref", meta.Ref),
		field(st, "Scope", meta.Scope()),
		field(st, "Analysed", meta.AnalysisTimestamp.Local().Format(time.DateTime)),
		field(st, "Files", fmt.Sprintf("%d of %d analysed, %d lines", meta.AnalyzedFiles, meta.TotalFiles, meta.TotalLines)),
		field(st, "Fingerprint", meta.Fingerprint),
	}

	var b strings.Builder
	b.WriteString(st.Box.Render(strings.Join(header, "\n")))
	b.WriteString("\n")

	section(&b, st, "Summary", []string{record.Summary})
	section(&b, st, "Objectives", bullets(record.Objectives))
	section(&b, st, "Architecture", architectureLines(st, record.Architecture))
	section(&b, st, "Key Components", componentLines(record.KeyComponents))
	if len(record.TechStack) > 0 {
		section(&b, st, "Tech Stack", []string{strings.Join(record.TechStack, ", ")})
	}
	section(&b, st, "Concepts", conceptLines(record.Concepts))
	if record.ComplexityScore != nil {
		section(&b, st, "Complexity", []string{st.Score.Render(fmt.Sprintf("%d/10", *record.ComplexityScore))})
	}
	section(&b, st, "Recommendations", numbered(record.Recommendations))
	section(&b, st, "File Types", fileTypeLines(meta.FileTypes))

	return b.String()
}

// renderHistory formats history rows as an aligned table.
func renderHistory(entries []domain.HistoryEntry) string {
	st := newReportStyles()

	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"FINGERPRINT", "LOCATION", "REF", "SUBTREE", "STORED"})
	for i := range entries {
		subtree := "-"
		if entries[i].Subtree != nil {
			subtree = *entries[i].Subtree
		}
		rows = append(rows, []string{
			entries[i].Fingerprint,
			entries[i].Location,
			entries[i].Ref,
			subtree,
			entries[i].StoredAt.Local().Format(time.DateTime),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		line := strings.TrimRight(strings.Join(cells, "  "), " ")
		if r == 0 {
			line = st.Label.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(st.Muted.Render(fmt.Sprintf("%d analyses", len(entries))))
	b.WriteString("\n")
	return b.String()
}

func field(st reportStyles, label, value string) string {
	return st.Label.Render(label+":") + " " + value
}

func section(b *strings.Builder, st reportStyles, title string, lines []string) {
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		return
	}
	b.WriteString(st.Heading.Render(title))
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func bullets(items []string) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return lines
}

func numbered(items []string) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return lines
}

func architectureLines(st reportStyles, a domain.Architecture) []string {
	if a.IsEmpty() {
		return nil
	}
	var lines []string
	if a.Pattern != "" {
		lines = append(lines, field(st, "Pattern", a.Pattern))
	}
	if len(a.Layers) > 0 {
		lines = append(lines, field(st, "Layers", strings.Join(a.Layers, " → ")))
	}
	dirs := make([]string, 0, len(a.KeyDirectories))
	for dir := range a.KeyDirectories {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		lines = append(lines, fmt.Sprintf("%s  %s", dir, st.Muted.Render(a.KeyDirectories[dir])))
	}
	return lines
}

func componentLines(components []domain.Component) []string {
	lines := make([]string, 0, len(components))
	for _, c := range components {
		line := "• " + c.Name
		if c.Kind != "" {
			line += " (" + c.Kind + ")"
		}
		if c.Purpose != "" {
			line += ": " + c.Purpose
		}
		if c.Location != "" {
			line += " [" + c.Location + "]"
		}
		lines = append(lines, line)
	}
	return lines
}

func conceptLines(concepts []domain.Concept) []string {
	lines := make([]string, 0, len(concepts))
	for _, c := range concepts {
		var tags []string
		for _, tag := range []string{c.Category, c.Importance} {
			if tag != "" {
				tags = append(tags, tag)
			}
		}
		line := "• " + c.Name
		if len(tags) > 0 {
			line += " [" + strings.Join(tags, ", ") + "]"
		}
		if c.Description != "" {
			line += ": " + c.Description
		}
		lines = append(lines, line)
	}
	return lines
}

// fileTypeLines lists extensions by descending count, then name.
func fileTypeLines(types map[string]int) []string {
	exts := make([]string, 0, len(types))
	for ext := range types {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if types[exts[i]] != types[exts[j]] {
			return types[exts[i]] > types[exts[j]]
		}
		return exts[i] < exts[j]
	})

	lines := make([]string, len(exts))
	for i, ext := range exts {
		lines[i] = fmt.Sprintf("%-14s %d", ext, types[ext])
	}
	return lines
}
