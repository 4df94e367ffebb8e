package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mielalabs/mpl-magick/mpl"
)

var (
	accentColor    = lipgloss.Color("#8B5CF6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

const (
	historyLimit   = 500
	historyPreview = 10
)

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

type replModel struct {
	ctx       context.Context
	textInput textinput.Model
	session   *mpl.Session
	output    *mpl.BufferOutput
	entities  func() []string
	store     *historyStore
	sessionID string
	logger    *log.Logger

	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	showVars    bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	Tab   key.Binding
	CtrlV key.Binding
	CtrlH key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous command"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next command"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlV: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "toggle vars"),
	),
	CtrlH: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

type replOptions struct {
	Prompt string
	// Entities lists knowledge-base ids for completion.
	Entities func() []string
	Store    *historyStore
	Logger   *log.Logger
}

func newREPLModel(ctx context.Context, session *mpl.Session, output *mpl.BufferOutput, opts replOptions) replModel {
	ti := textinput.New()
	ti.Placeholder = "speak a ritual..."
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = opts.Prompt
	if ti.Prompt == "" {
		ti.Prompt = "mpl> "
	}
	if opts.Entities == nil {
		opts.Entities = func() []string { return nil }
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	m := replModel{
		ctx:        ctx,
		textInput:  ti,
		session:    session,
		output:     output,
		entities:   opts.Entities,
		store:      opts.Store,
		sessionID:  uuid.NewString(),
		logger:     opts.Logger,
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
	if m.store != nil {
		previous, err := m.store.Recent(ctx, historyLimit)
		if err != nil {
			m.logger.Warn("history unavailable", "err", err)
		} else {
			m.cmdHistory = append(m.cmdHistory, previous...)
		}
	}
	return m
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.CtrlV):
			m.showVars = !m.showVars
			return m, nil

		case key.Matches(msg, keys.CtrlH):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m.textInput.SetValue("")
				m.historyIdx = -1
				return m, cmd
			}

			output, isErr := m.evaluate(input)
			m.history = append(m.history, historyEntry{
				input:  input,
				output: output,
				isErr:  isErr,
			})
			m.cmdHistory = append(m.cmdHistory, input)
			m.remember(input, isErr)
			m.textInput.SetValue("")
			m.historyIdx = -1
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) remember(input string, isErr bool) {
	if m.store == nil {
		return
	}
	if err := m.store.Append(m.ctx, m.sessionID, input, isErr); err != nil {
		m.logger.Warn("history not saved", "err", err)
	}
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":vars", ":v":
		m.showVars = !m.showVars
	case ":history":
		m.history = append(m.history, historyEntry{
			input:  input,
			output: m.recentCommands(),
		})
	case ":reset", ":r":
		m.session.Reset()
		m.history = append(m.history, historyEntry{
			input:  input,
			output: "Environment purged",
		})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			isErr:  true,
		})
	}
	return m, nil
}

func (m replModel) recentCommands() string {
	if len(m.cmdHistory) == 0 {
		return "No history"
	}
	start := max(len(m.cmdHistory)-historyPreview, 0)
	lines := make([]string, 0, len(m.cmdHistory)-start)
	for i := start; i < len(m.cmdHistory); i++ {
		lines = append(lines, fmt.Sprintf("%4d  %s", i+1, m.cmdHistory[i]))
	}
	return strings.Join(lines, "\n")
}

var elementWords = []string{"Sigil", "Mana", "Flux", "Vessel", "Void", "True", "False"}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	if input == "" {
		return m
	}

	// complete the identifier under the cursor, including after "invoke."
	start := strings.LastIndexAny(input, " .(,=") + 1
	lastWord := input[start:]
	if lastWord == "" {
		return m
	}

	seen := make(map[string]struct{})
	var completions []string
	add := func(candidates []string) {
		for _, c := range candidates {
			if _, dup := seen[c]; dup || !strings.HasPrefix(strings.ToLower(c), strings.ToLower(lastWord)) {
				continue
			}
			seen[c] = struct{}{}
			completions = append(completions, c)
		}
	}
	add(mpl.Verbs())
	add(elementWords)
	add(m.session.Env().Names())
	add(m.session.Summoned())
	add(m.entities())
	sort.Strings(completions)

	if len(completions) == 1 {
		m.textInput.SetValue(input[:start] + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}

	return m
}

// evaluate runs input in the persistent session and collects what it printed.
func (m replModel) evaluate(input string) (string, bool) {
	result, err := m.session.Run(m.ctx, input)
	lines, diags := m.output.Drain()
	for _, d := range diags {
		lines = append(lines, d.Error())
	}
	if err != nil {
		lines = append(lines, ritualError(err).Error())
		return strings.Join(lines, "\n"), true
	}
	if len(lines) == 0 {
		return fmt.Sprintf("ok (%d steps)", result.Steps), false
	}
	return strings.Join(lines, "\n"), len(diags) > 0
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("The circle closes.\n")
	}

	var b strings.Builder

	header := headerStyle.Render("MPL Shell")
	version := mutedStyle.Render("magick programming language")
	b.WriteString(header + " " + version + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", min(m.width-2, 60))) + "\n\n")

	reservedLines := 8
	if m.showHelp {
		reservedLines += 12
	}
	if m.showVars {
		reservedLines += m.session.Env().Len() + 3
	}
	availableHeight := m.height - reservedLines

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = max(len(m.history)-availableHeight, 0)
	}

	for i := historyStart; i < len(m.history); i++ {
		entry := m.history[i]
		if entry.input != "" {
			b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
		}
		for _, line := range strings.Split(entry.output, "\n") {
			if entry.isErr {
				b.WriteString("  " + errorStyle.Render("✗ "+line) + "\n")
			} else {
				b.WriteString("  " + resultStyle.Render("→ "+line) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if m.showVars {
		b.WriteString(renderVarsPanel(m.session.Env()))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+v") + helpDescStyle.Render(" vars  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderVarsPanel(env *mpl.Env) string {
	names := env.Names()
	if len(names) == 0 {
		return borderStyle.Render(mutedStyle.Render("No variables bound"))
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Variables"))
	varNameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	for _, name := range names {
		val, _ := env.Get(name)
		line := fmt.Sprintf("  %s = %s", varNameStyle.Render(name), val.String())
		if env.IsSealed(name) {
			line += mutedStyle.Render("  (sealed)")
		}
		lines = append(lines, line)
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate command history"},
		{"Tab", "Autocomplete verbs, variables and entities"},
		{"Enter", "Execute ritual"},
		{":help", "Toggle this help"},
		{":vars", "Toggle variables panel"},
		{":history", "Show recent commands"},
		{":clear", "Clear output"},
		{":reset", "Purge the environment"},
		{":quit", "Exit shell"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-8s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL(ctx context.Context, cfg *config, logger *log.Logger) error {
	output := &mpl.BufferOutput{}
	rt, err := newRuntime(ctx, runtimeOptions{
		Config: cfg,
		Output: output,
		Logger: logger,
		// the terminal belongs to the shell; omens read from an empty stream
		Stdin:  strings.NewReader(""),
		Stdout: &echoWriter{out: output},
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	var store *historyStore
	if cfg.Shell.HistoryPath != "" {
		store, err = openHistory(cfg.Shell.HistoryPath)
		if err != nil {
			logger.Warn("history disabled", "err", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	model := newREPLModel(ctx, rt.engine.NewSession(), output, replOptions{
		Prompt:   cfg.Shell.Prompt,
		Entities: rt.resolver.IDs,
		Store:    store,
		Logger:   logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
