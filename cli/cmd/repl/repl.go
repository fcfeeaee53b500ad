package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/bthn/lang"
	"github.com/ardnew/bthn/log"
)

// evalDoneMsg is sent when a submission finishes running.
type evalDoneMsg struct{ outcome }

// editDoneMsg is sent when editing replaced the session.
type editDoneMsg struct{ outcome }

// editCancelledMsg is sent when the user left the source unchanged or
// cleared it.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after an error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process fails for any other reason.
type editErrorMsg struct{ err error }

const (
	evalPrompt   = "➜ "
	contPrompt   = "… "
	ctrlPrompt   = " :"
	indentUnit   = lang.DefaultIndent
	defaultWidth = 80
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this cruft
  env      List bindings in the session environment
  gen      Print the session translated to Python
  edit     Edit the session source in external $EDITOR
  reset    Discard all bindings
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type a statement to run it; expression values are echoed
  A line starting with iff, els, def or lop opens a block:
    keep typing indented lines and enter an empty line to run it
  Press Tab / Shift-Tab to cycle through completions
    (Tab with nothing to complete inserts one indent)
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Press Ctrl+C to interrupt a running program or clear the line
  Press Ctrl+C on an empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	outputStyle     = lipgloss.NewStyle()
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats an echoed input line with its prompt.
func formatCommand(prompt, input string) string {
	style := promptStyle
	if prompt == ctrlPrompt {
		style = ctrlPromptStyle
	}

	return style.Render(prompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *session
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	evalText     string
	evalCursor   int
	ctrlText     string
	ctrlCursor   int
	pending      []string           // lines of an unfinished block
	running      bool               // a submission is being evaluated
	interrupt    context.CancelFunc // cancels the running submission
}

// Run starts the REPL. When reader is not nil its content is run first, so
// that its definitions are available in the session. Input history is kept
// under cacheDir.
func Run(
	ctx context.Context,
	reader io.Reader,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.Bool("has_source", reader != nil),
	)

	sess := newSession(logger)

	if reader != nil {
		data, err := io.ReadAll(reader)
		if err != nil {
			return lang.ErrReadInput.Wrap(err)
		}

		out := sess.eval(ctx, string(data))
		if out.output != "" {
			fmt.Println(out.output)
		}

		if out.err != nil {
			return out.err
		}

		logger.TraceContext(
			ctx,
			"repl source loaded",
			slog.Int("binding_count", sess.env.Len()),
		)
	}

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load history: %v\n", err)
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, sess, history, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

func newModel(
	ctx context.Context,
	sess *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    sess,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case evalDoneMsg:
		m.running = false
		m.interrupt = nil

		return m, printOutcome(msg.outcome)

	case editDoneMsg:
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("binding_count", m.session.env.Len()),
		)

		return m, tea.Sequence(
			printOutcome(msg.outcome),
			tea.Println(resultStyle.Render("✔ session replaced")),
		)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// printOutcome prints what a submission wrote, then its echoed value or
// its error.
func printOutcome(out outcome) tea.Cmd {
	var cmds []tea.Cmd

	if out.output != "" {
		cmds = append(cmds, tea.Println(outputStyle.Render(out.output)))
	}

	switch {
	case out.err != nil:
		cmds = append(cmds, tea.Println(errorStyle.Render("error: "+out.err.Error())))
	case out.echo != "":
		cmds = append(cmds, tea.Println(resultStyle.Render(out.echo)))
	}

	return tea.Sequence(cmds...)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hint())
	b.WriteString("\n")

	return b.String()
}

// hint returns the line shown below the input.
func (m model) hint() string {
	input := m.input.Value()

	if m.running {
		return hintStyle.Render("running (Ctrl+C to interrupt)")
	}

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		switch {
		case m.mode == modeCtrl:
			return hintStyle.Render(
				"Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
		case len(m.pending) > 0:
			return hintStyle.Render("Enter an empty line to run the block")
		default:
			return hintStyle.Render("Type a statement or press Esc for commands")
		}
	}

	if len(m.matches) > 0 {
		return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width, m.callable)
	}

	if m.mode == modeEval {
		call := detectFunctionCall(input, m.input.Position())
		if call.inCall {
			if params, ok := getSignature(m.session.env, call.name); ok {
				return renderSignatureHint(call.name, params, call.argIndex)
			}
		}
	}

	return ""
}

// callable reports whether name is bound to a callable in the session.
func (m model) callable(name string) bool {
	v, ok := m.session.env.Lookup(name)

	return ok && v.Type() == lang.TypeCallable
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	if m.running {
		if msg.Type == tea.KeyCtrlC && m.interrupt != nil {
			m.interrupt()
		}

		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" && len(m.pending) == 0 {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.pending = nil
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.handleTab()

	case tea.KeyShiftTab:
		return m.handleShiftTab()

	case tea.KeyUp:
		return m.historyPrev()

	case tea.KeyDown:
		return m.historyNext()

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.toggleMode()

	case tea.KeyRunes, tea.KeySpace:
		// Space breaks out of tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

func (m model) handleTab() (model, tea.Cmd) {
	if len(m.matches) == 0 {
		if m.mode == modeEval {
			insertAtCursor(&m, indentUnit)
		}

		return m, nil
	}

	// Single candidate: complete and confirm immediately.
	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + 1) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

func (m model) handleShiftTab() (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	if m.tabActive {
		m.suggIdx--
		if m.suggIdx < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = len(m.matches) - 1
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// insertAtCursor inserts text at the cursor position.
func insertAtCursor(m *model, text string) {
	input := m.input.Value()
	pos := min(m.input.Position(), len(input))

	m.input.SetValue(input[:pos] + text + input[pos:])
	m.input.SetCursor(pos + len(text))
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()

	m.evalText = ""
	m.evalCursor = 0
	m.ctrlText = ""
	m.ctrlCursor = 0
	m.input.SetValue("")
	m.matches = nil

	if m.mode == modeCtrl {
		input := strings.TrimSpace(line)
		if input == "" {
			return m, nil
		}

		_ = m.history.Write(input, modeCtrl)
		m.historyIdx = m.history.Len()
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl command",
			slog.String("input", input),
		)

		return m.executeCommand(input)
	}

	_ = m.history.Write(line, modeEval)
	m.historyIdx = m.history.Len()

	prompt := evalPrompt
	if len(m.pending) > 0 {
		prompt = contPrompt
	}

	echoCmd := tea.Println(formatCommand(prompt, line))
	blank := strings.TrimSpace(line) == ""

	switch {
	case len(m.pending) > 0 && blank:
		src := strings.Join(m.pending, "\n")
		m.pending = nil
		m.input.Prompt = promptStyle.Render(evalPrompt)

		return m.startEval(src, echoCmd)

	case len(m.pending) > 0:
		m.pending = append(m.pending, line)
		m.input.SetValue(nextIndent(line))
		m.input.CursorEnd()

		return m, echoCmd

	case blank:
		return m, nil

	case opensBlock(line):
		m.pending = []string{line}
		m.input.Prompt = promptStyle.Render(contPrompt)
		m.input.SetValue(nextIndent(line))
		m.input.CursorEnd()

		return m, echoCmd
	}

	return m.startEval(line, echoCmd)
}

// startEval runs src in the background. The submission can be interrupted
// with Ctrl+C until an [evalDoneMsg] arrives.
func (m model) startEval(src string, echo tea.Cmd) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval",
		slog.String("input", src),
	)

	ctx, cancel := context.WithCancel(m.ctxFunc())

	m.running = true
	m.interrupt = cancel

	sess := m.session

	return m, tea.Sequence(echo, func() tea.Msg {
		defer cancel()

		return evalDoneMsg{sess.eval(ctx, src)}
	})
}

// nextIndent returns the indentation the line after line starts with: the
// same as line, one unit deeper if line opens a block.
func nextIndent(line string) string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	if opensBlock(line) {
		indent += indentUnit
	}

	return indent
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(formatCommand(ctrlPrompt, input))

	cmd := parts[0]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.Any("args", parts[1:]),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage()))

	case "env":
		return m, tea.Sequence(echoCmd, tea.Println(m.listBindings()))

	case "gen":
		src, err := m.session.generate(m.ctxFunc())
		if err != nil {
			return m, tea.Sequence(echoCmd,
				tea.Println(errorStyle.Render("error: "+err.Error())))
		}

		return m, tea.Sequence(echoCmd, tea.Println(strings.TrimSuffix(src, "\n")))

	case "reset":
		m.session.reset()

		return m, tea.Sequence(echoCmd, tea.Println(hintStyle.Render("session reset")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		session: m.session,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if !cmd.changed {
			return editCancelledMsg{}
		}

		return editDoneMsg{cmd.result}
	})
}

func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		m.historyIdx--

		if entry, err := m.history.Entry(m.historyIdx); err == nil {
			if m.mode != entry.Mode {
				m, _ = m.switchToMode(entry.Mode)
			}

			m.input.SetValue(entry.Line)
			m.input.SetCursor(len(entry.Line))
			refreshMatches(&m, false)
		}
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		m.historyIdx++

		if entry, err := m.history.Entry(m.historyIdx); err == nil {
			if m.mode != entry.Mode {
				m, _ = m.switchToMode(entry.Mode)
			}

			m.input.SetValue(entry.Line)
			m.input.SetCursor(len(entry.Line))
			refreshMatches(&m, false)
		}
	} else {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m, nil
}

// listBindings renders every binding of the session, one per line.
func (m model) listBindings() string {
	var b strings.Builder

	for name, v := range m.session.env.All() {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			name,
			hintStyle.Render(v.Type().String()),
			resultStyle.Render(preview(v))))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// toggleMode switches between eval and control modes, preserving input state.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		prompt := evalPrompt
		if len(m.pending) > 0 {
			prompt = contPrompt
		}

		m.input.Prompt = promptStyle.Render(prompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
