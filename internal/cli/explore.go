package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/irscope/pkg/analyzer"
	"github.com/matzehuels/irscope/pkg/client"
	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/explorer"
	"github.com/matzehuels/irscope/pkg/highlight"
	"github.com/matzehuels/irscope/pkg/source"
)

// Pane styles
var (
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	focusStyle    = paneStyle.BorderForeground(colorCyan)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	markedStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		serverURL string
		language  string
		debounce  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "explore [file]",
		Short: "Edit a file with a live, cursor-highlighted graph",
		Long: `Open a source file in a terminal editor next to its graph.

The graph nodes containing the cursor are highlighted as you move. Edits
trigger a re-conversion after a quiet period (--debounce); a newer edit
cancels a conversion still in flight. Diagnostics are listed below the
editor; press tab to focus them and enter to jump to a location.

Conversions run in-process unless --server points at an 'irscope serve'
backend.

Keys: arrows move, ctrl+s saves, tab switches focus, esc/ctrl+c quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("server") {
				serverURL = c.Config.Explorer.Server
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = c.Config.Explorer.Debounce
			}
			return c.runExplore(cmd.Context(), args[0], serverURL, language, debounce)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "backend URL (default: convert in-process)")
	cmd.Flags().StringVarP(&language, "lang", "l", "", "source language (default: by extension)")
	cmd.Flags().DurationVar(&debounce, "debounce", 3*time.Second, "quiet period before re-converting")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, path, serverURL, language string, debounce time.Duration) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read source")
	}

	if language == "" {
		if lang, ok := analyzer.Detect(path); ok {
			language = lang.Name
		} else {
			language = c.Config.Analysis.Language
		}
	}

	conv, err := c.converter(ctx, serverURL, language)
	if err != nil {
		return err
	}

	m := newExploreModel(ctx, path, string(src), explorer.NewScheduler(conv), debounce)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(exploreModel); ok {
		fm.sched.Stop()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("explorer: %w", err)
	}
	return nil
}

// converter picks the in-process runner or a backend client.
func (c *CLI) converter(ctx context.Context, serverURL, language string) (explorer.Converter, error) {
	if serverURL == "" {
		return explorer.Local{Runner: c.newRunner(), Language: language}, nil
	}
	cl, err := client.New(serverURL)
	if err != nil {
		return nil, err
	}
	if err := cl.IsAlive(ctx); err != nil {
		return nil, fmt.Errorf("backend %s: %w", serverURL, err)
	}
	return explorer.Remote{Client: cl, Language: language}, nil
}

// =============================================================================
// exploreModel - bubbletea model
// =============================================================================

// debounceMsg fires after the quiet period that followed edit number token.
type debounceMsg struct{ token uint64 }

// outcomeMsg carries a finished conversion.
type outcomeMsg explorer.Outcome

// savedMsg reports the result of ctrl+s.
type savedMsg struct{ err error }

type exploreModel struct {
	ctx      context.Context
	path     string
	state    explorer.State
	sched    *explorer.Scheduler
	debounce time.Duration

	edits      uint64 // increments on every text change
	focusDiags bool
	selected   int
	status     string

	width, height int
}

func newExploreModel(ctx context.Context, path, text string, sched *explorer.Scheduler, debounce time.Duration) exploreModel {
	return exploreModel{
		ctx:      ctx,
		path:     path,
		state:    explorer.New(text),
		sched:    sched,
		debounce: debounce,
		width:    120,
		height:   40,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return func() tea.Msg { return debounceMsg{token: 0} }
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case debounceMsg:
		if msg.token != m.edits {
			return m, nil
		}
		var seq uint64
		m.state, seq = m.state.Schedule()
		return m, m.convert(seq, m.state.Text())

	case outcomeMsg:
		m.state = explorer.Outcome(msg).Apply(m.state)
		m.selected = min(m.selected, max(len(m.state.Diagnostics())-1, 0))
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
		} else {
			m.status = "saved " + m.path
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m exploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.sched.Stop()
		return m, tea.Quit
	case tea.KeyTab:
		m.focusDiags = !m.focusDiags && len(m.state.Diagnostics()) > 0
		return m, nil
	case tea.KeyCtrlS:
		path, text := m.path, m.state.Text()
		return m, func() tea.Msg {
			return savedMsg{err: os.WriteFile(path, []byte(text), 0o644)}
		}
	}

	if m.focusDiags {
		diags := m.state.Diagnostics()
		switch msg.Type {
		case tea.KeyUp:
			m.selected = max(m.selected-1, 0)
		case tea.KeyDown:
			m.selected = min(m.selected+1, max(len(diags)-1, 0))
		case tea.KeyEnter:
			if m.selected < len(diags) {
				m.state = m.state.Jump(diags[m.selected])
			}
			m.focusDiags = false
		}
		return m, nil
	}

	before := m.state.Text()
	switch msg.Type {
	case tea.KeyLeft:
		m.state = m.state.Move(-1)
	case tea.KeyRight:
		m.state = m.state.Move(1)
	case tea.KeyUp:
		m.state = m.state.MoveLine(-1)
	case tea.KeyDown:
		m.state = m.state.MoveLine(1)
	case tea.KeyHome:
		line, _ := m.state.Position()
		m.state = m.state.MoveTo(lineStart(m.state, line))
	case tea.KeyEnd:
		line, _ := m.state.Position()
		m.state = m.state.MoveTo(lineEnd(m.state, line))
	case tea.KeyBackspace:
		m.state = m.state.Delete()
	case tea.KeyDelete:
		m.state = m.state.DeleteForward()
	case tea.KeyEnter:
		m.state = m.state.Insert("\n")
	case tea.KeySpace:
		m.state = m.state.Insert(" ")
	case tea.KeyRunes:
		m.state = m.state.Insert(string(msg.Runes))
	}

	if m.state.Text() == before {
		return m, nil
	}
	m.edits++
	m.status = ""
	token := m.edits
	return m, tea.Tick(m.debounce, func(time.Time) tea.Msg { return debounceMsg{token: token} })
}

// convert runs conversion seq; the scheduler cancels the previous one.
func (m exploreModel) convert(seq uint64, text string) tea.Cmd {
	sched, ctx := m.sched, m.ctx
	return func() tea.Msg {
		return outcomeMsg(sched.Run(ctx, seq, []byte(text)))
	}
}

func lineStart(s explorer.State, line int) int {
	start, _, _ := source.NewLineIndex(s.Text()).LineBounds(line)
	return start
}

func lineEnd(s explorer.State, line int) int {
	_, end, _ := source.NewLineIndex(s.Text()).LineBounds(line)
	return end
}

// =============================================================================
// View
// =============================================================================

func (m exploreModel) View() string {
	paneW := max((m.width-4)/2, 20)
	diagH := min(len(m.state.Diagnostics()), 6) + 2
	paneH := max(m.height-diagH-4, 5)

	editor := m.renderEditor(paneW, paneH)
	graph := m.renderGraph(paneW, paneH)

	editorStyle, diagStyle := focusStyle, paneStyle
	if m.focusDiags {
		editorStyle, diagStyle = paneStyle, focusStyle
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		editorStyle.Width(paneW).Height(paneH).Render(editor),
		paneStyle.Width(paneW).Height(paneH).Render(graph),
	)
	diags := diagStyle.Width(2*paneW + 2).Render(m.renderDiagnostics())
	return lipgloss.JoinVertical(lipgloss.Left, top, diags, m.renderStatus())
}

func (m exploreModel) renderEditor(width, height int) string {
	text, cursor := m.state.Text(), m.state.Cursor()
	var b strings.Builder
	b.WriteString(text[:cursor])
	if cursor < len(text) && text[cursor] != '\n' {
		r := []rune(text[cursor:])[0]
		b.WriteString(cursorStyle.Render(string(r)))
		b.WriteString(text[cursor+len(string(r)):])
	} else {
		b.WriteString(cursorStyle.Render(" "))
		b.WriteString(text[cursor:])
	}
	line, _ := m.state.Position()
	return window(b.String(), line-1, height, width)
}

func (m exploreModel) renderGraph(width, height int) string {
	if !m.state.HasGraph() {
		if m.state.Pending() {
			return StyleDim.Render("converting...")
		}
		return StyleDim.Render("no graph; see diagnostics")
	}
	lines := strings.Split(m.state.Graph(), "\n")
	focus := 0
	suffix := ":::" + highlight.Class
	for i, l := range lines {
		if strings.HasSuffix(l, suffix) {
			lines[i] = markedStyle.Render(strings.TrimSuffix(l, suffix))
			focus = i
		}
	}
	return window(strings.Join(lines, "\n"), focus, height, width)
}

func (m exploreModel) renderDiagnostics() string {
	diags := m.state.Diagnostics()
	if len(diags) == 0 {
		return StyleSuccess.Render(iconSuccess + " no diagnostics")
	}
	var b strings.Builder
	for i, d := range diags {
		line := formatDiagnostic("", d)
		if m.focusDiags && i == m.selected {
			line = selectedStyle.Render("▸ ") + line
			if !d.Clickable() {
				line += StyleDim.Render(" (no location)")
			}
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < len(diags)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m exploreModel) renderStatus() string {
	line, col := m.state.Position()
	parts := []string{m.path, fmt.Sprintf("%d:%d", line, col)}
	if ids := m.state.Highlighted(); len(ids) > 0 {
		parts = append(parts, ids[len(ids)-1])
	}
	switch {
	case m.state.Pending():
		parts = append(parts, "converting")
	case m.state.Dirty():
		parts = append(parts, "edited")
	}
	if e := m.state.Err(); e != "" {
		parts = append(parts, StyleError.Render(e))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return StyleDim.Render(strings.Join(parts, " · "))
}

// window returns at most height lines of text around line focus, each cut
// to width runes.
func window(text string, focus, height, width int) string {
	lines := strings.Split(text, "\n")
	start := 0
	if focus >= height {
		start = focus - height + 1
	}
	end := min(start+height, len(lines))
	out := lines[start:end]
	for i, l := range out {
		out[i] = lipgloss.NewStyle().MaxWidth(width).Render(l)
	}
	return strings.Join(out, "\n")
}
