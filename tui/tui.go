// Package tui provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent activity bar showing in-flight
// queries and an input prompt at the bottom of the terminal. All
// transcript output is printed above the rendered area via
// Program.Println, so concurrent writes never garble the display.
package tui

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/aria-voice/aria-core/core/events"
)

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// Assistant speech — soft sky blue.
	speechStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	// Progress narration — soft mint, dimmer than final answers.
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	// Secondary text — dimmed zinc for hints and metadata.
	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	// Urgent — soft coral for failures.
	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	userEchoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))
)

const wrapWidth = 78

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely
// call the print helpers, [UI.HandleEvent] and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI() *UI {
	return &UI{
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe. Falls back to
// fmt.Println before the program has started.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// PrintSpeech prints an utterance the assistant is speaking.
func (u *UI) PrintSpeech(text string) {
	u.Println(speechStyle.Render(wrap("  " + text)))
}

// PrintProgress prints a progress narration line.
func (u *UI) PrintProgress(text string) {
	u.Println(progressStyle.Render("  … " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints a failure line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentStyle.Render("  " + text))
}

// PrintUserInput echoes a query into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("you") + secondaryStyle.Render("> ") + userEchoStyle.Render(text))
}

// HandleEvent renders a session event into the transcript and the
// activity bar. Safe to call from any goroutine; intended as the
// orchestrator's event callback.
func (u *UI) HandleEvent(event events.Event) {
	switch ev := event.(type) {
	case events.QueryReceived:
		u.send(queryOpenedMsg{id: ev.QueryID, text: ev.Text})
	case events.RoutingDecided:
		if ev.Tool != "" {
			u.send(queryPhaseMsg{id: ev.QueryID, phase: ev.Tool})
		} else {
			u.send(queryPhaseMsg{id: ev.QueryID, phase: ev.Route})
		}
	case events.RoutingFallback:
		u.PrintHint("routing fell back: " + ev.Cause)
	case events.ResearchProgress:
		u.send(queryPhaseMsg{id: ev.QueryID, phase: ev.Phase})
	case events.UtteranceStarted:
		switch ev.Priority {
		case "progress":
			u.PrintProgress(ev.Text)
		default:
			u.PrintSpeech(ev.Text)
		}
	case events.UtteranceDropped:
		if ev.Cause == events.DropCausePlaybackFailed {
			u.PrintUrgent("playback failed, utterance dropped")
		}
	case events.ResearchFailed:
		u.PrintUrgent("research failed: " + ev.Error)
	case events.QueryClosed:
		u.send(queryClosedMsg{id: ev.QueryID})
	}
}

func (u *UI) send(msg tea.Msg) {
	if u.program != nil && !u.done.Load() {
		u.program.Send(msg)
	}
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: lipgloss-styled prompts add invisible ANSI
	// bytes that break the textinput offset math for long input.
	ti.Prompt = "you> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = userEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60 // updated on first WindowSizeMsg

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = phaseStyle

	m := model{
		input:   ti,
		spin:    sp,
		queries: map[string]*queryState{},
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echoFn:  u.PrintUserInput,
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

type queryState struct {
	text  string
	phase string
}

type queryOpenedMsg struct{ id, text string }
type queryPhaseMsg struct{ id, phase string }
type queryClosedMsg struct{ id string }

type model struct {
	input   textinput.Model
	spin    spinner.Model
	queries map[string]*queryState
	order   []string
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)
	width   int
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Echo via a Cmd so the print runs outside Update and
				// cannot deadlock on the message queue.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		const promptLen = 5 // "you> "
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil

	case queryOpenedMsg:
		if _, exists := m.queries[msg.id]; !exists {
			m.queries[msg.id] = &queryState{text: shorten(msg.text, 24), phase: "routing"}
			m.order = append(m.order, msg.id)
		}
		return m, nil

	case queryPhaseMsg:
		if state, ok := m.queries[msg.id]; ok {
			state.phase = shorten(msg.phase, 32)
		}
		return m, nil

	case queryClosedMsg:
		delete(m.queries, msg.id)
		for i, id := range m.order {
			if id == msg.id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder

	if len(m.queries) > 0 {
		b.WriteString(m.renderBar())
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	var parts []string
	for _, id := range m.order {
		state := m.queries[id]
		parts = append(parts,
			m.spin.View()+" "+
				labelStyle.Render(state.text+": ")+
				phaseStyle.Render(state.phase))
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}

func wrap(text string) string {
	return wordwrap.String(text, wrapWidth)
}

func shorten(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}
