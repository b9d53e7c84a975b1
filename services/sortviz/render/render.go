// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package render draws traces, summaries and comparisons as terminal text.
//
// A Renderer only reads what it is given. Steps, summaries and reports are
// never modified, so the same trace can be rendered repeatedly or shared
// with other consumers.
package render

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/AleutianAI/sortviz/services/sortviz/compare"
)

// Palette.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")
	ColorGold        = lipgloss.Color("#F4D03F")
	ColorCoral       = lipgloss.Color("#E74C3C")
	ColorViolet      = lipgloss.Color("#9B59B6")
)

// Role is the part an element plays in a step.
type Role int

const (
	RoleDefault Role = iota
	RoleHighlighted
	RoleComparing
	RoleSwapped
	RolePivot
)

// Symbol returns the block character drawn for the role.
func (r Role) Symbol() string {
	switch r {
	case RolePivot:
		return "▀"
	case RoleSwapped:
		return "░"
	case RoleComparing:
		return "▓"
	case RoleHighlighted:
		return "▒"
	default:
		return "█"
	}
}

// Label returns the legend label of the role.
func (r Role) Label() string {
	switch r {
	case RolePivot:
		return "Pivot"
	case RoleSwapped:
		return "Swapped"
	case RoleComparing:
		return "Comparing"
	case RoleHighlighted:
		return "Highlighted"
	default:
		return "Value"
	}
}

// RoleOf returns the role of index i in s. Pivot beats swapped, swapped
// beats comparing and comparing beats highlighted.
func RoleOf(i int, s algorithms.Step) Role {
	switch {
	case s.Pivot != nil && *s.Pivot == i:
		return RolePivot
	case slices.Contains(s.Swapped, i):
		return RoleSwapped
	case slices.Contains(s.Compared, i):
		return RoleComparing
	case slices.Contains(s.Highlighted, i):
		return RoleHighlighted
	default:
		return RoleDefault
	}
}

type styles struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	bold     lipgloss.Style
	box      lipgloss.Style
	header   lipgloss.Style
	best     lipgloss.Style
	roles    map[Role]lipgloss.Style
	barStyle map[Role]lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		roles := map[Role]lipgloss.Style{}
		for _, r := range []Role{RoleDefault, RoleHighlighted, RoleComparing, RoleSwapped, RolePivot} {
			roles[r] = plain
		}
		return styles{
			title:    plain,
			muted:    plain,
			bold:     plain,
			box:      plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
			header:   plain,
			best:     plain,
			roles:    roles,
			barStyle: roles,
		}
	}
	roles := map[Role]lipgloss.Style{
		RoleDefault:     lipgloss.NewStyle().Foreground(ColorTealPrimary),
		RoleHighlighted: lipgloss.NewStyle().Foreground(ColorViolet),
		RoleComparing:   lipgloss.NewStyle().Foreground(ColorGold).Bold(true),
		RoleSwapped:     lipgloss.NewStyle().Foreground(ColorCoral).Bold(true),
		RolePivot:       lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true).Underline(true),
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
		muted:    lipgloss.NewStyle().Foreground(ColorSlate),
		bold:     lipgloss.NewStyle().Bold(true),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorTealDeep).Padding(0, 1),
		header:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealPrimary),
		best:     lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
		roles:    roles,
		barStyle: roles,
	}
}

// Renderer turns sortviz values into text.
//
// Thread Safety: Safe for concurrent use; a Renderer is immutable.
type Renderer struct {
	color  bool
	width  int
	styles styles
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor enables lipgloss colors. Default: off.
func WithColor(on bool) Option {
	return func(r *Renderer) { r.color = on }
}

// WithWidth sets the separator and bar width. Default: 60.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: 60}
	for _, opt := range opts {
		opt(r)
	}
	r.styles = newStyles(r.color)
	return r
}

// Step renders one step: a heading, the array with role symbols and a
// legend of the roles present.
func (r *Renderer) Step(s algorithms.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.styles.title.Render(fmt.Sprintf("Step %d:", s.Sequence)), s.Description)
	b.WriteString(r.styles.muted.Render(strings.Repeat("-", r.width)))
	b.WriteByte('\n')
	b.WriteString("Array: ")
	b.WriteString(r.Array(s))
	if legend := r.Legend(s); legend != "" {
		b.WriteString("\nLegend: ")
		b.WriteString(legend)
	}
	return b.String()
}

// Array renders the array state of s as "[█ 3 ▓ 1 ...]".
func (r *Renderer) Array(s algorithms.Step) string {
	parts := make([]string, len(s.ArrayState))
	for i, v := range s.ArrayState {
		role := RoleOf(i, s)
		parts[i] = r.styles.roles[role].Render(role.Symbol() + " " + algorithms.FormatValue(v))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Legend lists the roles that appear in s, in the order comparing,
// highlighted, swapped, pivot. It is empty for a step with no roles.
func (r *Renderer) Legend(s algorithms.Step) string {
	var parts []string
	add := func(role Role, present bool) {
		if present {
			parts = append(parts, r.styles.roles[role].Render(role.Symbol())+" = "+role.Label())
		}
	}
	add(RoleComparing, len(s.Compared) > 0)
	add(RoleHighlighted, len(s.Highlighted) > 0)
	add(RoleSwapped, len(s.Swapped) > 0)
	add(RolePivot, s.Pivot != nil)
	return strings.Join(parts, " | ")
}

// Bars renders one horizontal bar per element, scaled to the renderer
// width. Negative values are shifted so the smallest value gets the
// shortest bar.
func (r *Renderer) Bars(s algorithms.Step) string {
	if len(s.ArrayState) == 0 {
		return r.styles.muted.Render("(empty)")
	}
	lo, hi := slices.Min(s.ArrayState), slices.Max(s.ArrayState)
	labels := make([]string, len(s.ArrayState))
	labelWidth := 0
	for i, v := range s.ArrayState {
		labels[i] = algorithms.FormatValue(v)
		labelWidth = max(labelWidth, len(labels[i]))
	}
	maxBar := max(r.width-labelWidth-3, 1)

	lines := make([]string, len(s.ArrayState))
	for i, v := range s.ArrayState {
		n := maxBar
		if hi > lo {
			n = 1 + int(math.Round((v-lo)/(hi-lo)*float64(maxBar-1)))
		}
		role := RoleOf(i, s)
		bar := r.styles.barStyle[role].Render(strings.Repeat(role.Symbol(), n))
		lines[i] = fmt.Sprintf("%*s │%s", labelWidth, labels[i], bar)
	}
	return strings.Join(lines, "\n")
}

// Summary renders the analysis box for a completed run.
func (r *Renderer) Summary(sum algorithms.Summary) string {
	rows := [][2]string{
		{"Algorithm", sum.Algorithm},
		{"Array Size", fmt.Sprint(sum.ArraySize)},
		{"Execution Time", fmt.Sprintf("%.6fs", sum.ExecutionTime.Seconds())},
		{"Total Steps", fmt.Sprint(sum.TotalSteps)},
		{"Comparisons", fmt.Sprint(sum.Comparisons)},
		{"Swaps", fmt.Sprint(sum.Swaps)},
		{"Time Complexity", orNA(sum.Complexity.TimeComplexity)},
		{"Space Complexity", orNA(sum.Complexity.SpaceComplexity)},
	}
	var b strings.Builder
	b.WriteString(r.styles.title.Render("ALGORITHM ANALYSIS REPORT"))
	for _, row := range rows {
		fmt.Fprintf(&b, "\n%s %s", r.styles.bold.Render(fmt.Sprintf("%-17s", row[0]+":")), row[1])
	}
	return r.styles.box.Render(b.String())
}

// Info renders the static complexity facts of an algorithm.
func (r *Renderer) Info(info algorithms.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", r.styles.title.Render(info.DisplayName), info.ID)
	fmt.Fprintf(&b, "  Time:      %s\n", info.TimeComplexity)
	fmt.Fprintf(&b, "  Space:     %s\n", info.SpaceComplexity)
	fmt.Fprintf(&b, "  Stability: %s\n", info.Stability)
	fmt.Fprintf(&b, "  %s", info.Description)
	return b.String()
}

// Trace writes up to limit steps followed by the summary. limit <= 0 writes
// every step.
func (r *Renderer) Trace(w io.Writer, sum algorithms.Summary, steps []algorithms.Step, limit int) error {
	if len(steps) == 0 {
		if _, err := fmt.Fprintln(w, "No steps recorded for this algorithm."); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, r.Summary(sum))
		return err
	}

	shown := steps
	if limit > 0 && len(steps) > limit {
		shown = steps[:limit]
	}
	if _, err := fmt.Fprintf(w, "%s\n\n", r.styles.header.Render("All Steps for "+sum.Algorithm)); err != nil {
		return err
	}
	for _, s := range shown {
		if _, err := fmt.Fprintf(w, "%s\n\n", r.Step(s)); err != nil {
			return err
		}
	}
	if rest := len(steps) - len(shown); rest > 0 {
		if _, err := fmt.Fprintf(w, "%s\n\n", r.styles.muted.Render(fmt.Sprintf("... and %d more steps", rest))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, r.Summary(sum))
	return err
}

// ComparisonTable renders a report as one row per algorithm followed by the
// ranking for each metric. The winner of each metric is marked.
func (r *Renderer) ComparisonTable(report compare.Report) string {
	if report.Empty() {
		return r.styles.muted.Render("No algorithms compared.")
	}

	header := []string{"Algorithm", "Time (s)", "Comparisons", "Swaps", "Steps"}
	rows := make([][]string, 0, len(report.Algorithms))
	for _, s := range report.Algorithms {
		rows = append(rows, []string{
			s.Algorithm,
			fmt.Sprintf("%.6f", s.ExecutionTime.Seconds()),
			fmt.Sprint(s.Comparisons),
			fmt.Sprint(s.Swaps),
			fmt.Sprint(s.TotalSteps),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	line := func(cells []string, style lipgloss.Style) string {
		padded := make([]string, len(cells))
		for i, c := range cells {
			padded[i] = style.Render(fmt.Sprintf("%-*s", widths[i], c))
		}
		return strings.Join(padded, "  ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.styles.title.Render(fmt.Sprintf("Comparison over %d elements", report.DatasetSize)))
	b.WriteString(line(header, r.styles.header))
	for _, row := range rows {
		b.WriteByte('\n')
		b.WriteString(line(row, lipgloss.NewStyle()))
	}
	b.WriteString("\n\nRankings (best first):")
	for _, m := range compare.Metrics() {
		names := report.Rankings[m]
		if len(names) == 0 {
			continue
		}
		ranked := make([]string, len(names))
		for i, n := range names {
			ranked[i] = n
			if i == 0 {
				ranked[i] = r.styles.best.Render(n + " ★")
			}
		}
		fmt.Fprintf(&b, "\n  %-15s %s", string(m)+":", strings.Join(ranked, " > "))
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
