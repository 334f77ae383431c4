// Package render turns core entities into terminal output: glamour
// markdown for documents, lipgloss for one-line status text.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"corelab/pkg/coretypes"
)

// DefaultWordWrap is the wrap width used when none is given.
const DefaultWordWrap = 80

// Styles accepted by NewRenderer. "auto" picks dark or light from the terminal.
var Styles = []string{"auto", "dark", "light", "notty", "ascii"}

// Renderer renders markdown for the terminal.
type Renderer struct {
	style string
	term  *glamour.TermRenderer
}

// NewRenderer creates a renderer for style. An empty style means "auto"
// and a non-positive width means DefaultWordWrap.
func NewRenderer(style string, width int) (*Renderer, error) {
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" {
		style = "auto"
	}
	if width <= 0 {
		width = DefaultWordWrap
	}

	var styleOpt glamour.TermRendererOption
	switch style {
	case "auto":
		styleOpt = glamour.WithAutoStyle()
	case "dark", "light", "notty", "ascii":
		styleOpt = glamour.WithStandardStyle(style)
	default:
		return nil, fmt.Errorf("unknown style '%s' (supported: %s): %w",
			style, strings.Join(Styles, ", "), coretypes.ErrValidation)
	}

	term, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Renderer{style: style, term: term}, nil
}

// Style returns the renderer's style name.
func (r *Renderer) Style() string {
	return r.style
}

// Render renders markdown to ANSI terminal output.
func (r *Renderer) Render(markdown string) (string, error) {
	out, err := r.term.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// Person renders a person profile. See PersonMarkdown.
func (r *Renderer) Person(p coretypes.Person, convs []coretypes.Conversation, mems []coretypes.Memory) (string, error) {
	return r.Render(PersonMarkdown(p, convs, mems))
}

// PersonMarkdown builds the markdown profile of a person: header and notes,
// memories in the given order, then conversations in the given order.
func PersonMarkdown(p coretypes.Person, convs []coretypes.Conversation, mems []coretypes.Memory) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	status := "active"
	if !p.IsActive {
		status = "inactive"
	}
	fmt.Fprintf(&b, "*#%d, %s, added %s*\n\n", p.ID, status, p.CreatedAt)
	if p.Notes != nil && strings.TrimSpace(*p.Notes) != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(*p.Notes))
	}

	b.WriteString("## Memories\n\n")
	if len(mems) == 0 {
		b.WriteString("_No memories yet._\n\n")
	} else {
		b.WriteString("| Key | Value | Importance |\n|---|---|---|\n")
		for _, m := range mems {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(m.Key), cell(m.Value), stars(m.Importance))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Conversations\n\n")
	if len(convs) == 0 {
		b.WriteString("_No conversations yet._\n")
	}
	for _, c := range convs {
		fmt.Fprintf(&b, "### %s\n\n", c.CreatedAt)
		if c.Context != nil && strings.TrimSpace(*c.Context) != "" {
			fmt.Fprintf(&b, "> %s\n\n", strings.TrimSpace(*c.Context))
		}
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(c.Content))
	}

	return b.String()
}

// cell escapes table separators and flattens newlines.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", max(0, 5-n))
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Status renders "label: available" or "label: unavailable" with color.
func Status(label string, ok bool) string {
	state := okStyle.Render("available")
	if !ok {
		state = failStyle.Render("unavailable")
	}
	return label + dimStyle.Render(": ") + state
}
