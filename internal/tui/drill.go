// Package tui is the terminal drill client.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/certprep/internal/drill"
)

var optionLabels = []string{"A", "B", "C", "D", "E", "F"}

type tickMsg time.Time

// Model drives one drill session in the terminal.
type Model struct {
	session *drill.Session
	title   string

	width    int
	selected int

	confirmQuit bool
	quitting    bool
	err         error
}

// NewModel creates a model for an already started session.
func NewModel(session *drill.Session, title string) Model {
	return Model{session: session, title: title}
}

func (m Model) Init() tea.Cmd {
	if m.session.Remaining() >= 0 {
		return tickCmd()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		if m.session.Phase() == drill.PhaseComplete {
			return m, nil
		}
		if m.session.TimeExpired() && m.session.Phase() == drill.PhaseFeedback {
			return m.next()
		}
		return m, tickCmd()

	case tea.KeyPressMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		m.session.Abandon()
		m.quitting = true
		return m, tea.Quit
	}

	if m.confirmQuit {
		switch key {
		case "y", "Y":
			m.session.Abandon()
			m.quitting = true
			return m, tea.Quit
		case "n", "N", "esc":
			m.confirmQuit = false
		}
		return m, nil
	}

	if key == "q" || key == "esc" {
		m.confirmQuit = true
		return m, nil
	}

	switch m.session.Phase() {
	case drill.PhasePresenting:
		options := len(m.session.Current().Options)
		switch key {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < options-1 {
				m.selected++
			}
		case "enter":
			return m.answer(m.selected)
		default:
			if i, ok := optionIndex(key); ok && i < options {
				return m.answer(i)
			}
		}

	case drill.PhaseFeedback:
		if key == "enter" || key == "space" || key == " " {
			return m.next()
		}
	}
	return m, nil
}

// optionIndex maps 1-6 and a-f to an option index.
func optionIndex(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	switch c := key[0]; {
	case c >= '1' && c <= '6':
		return int(c - '1'), true
	case c >= 'a' && c <= 'f':
		return int(c - 'a'), true
	}
	return 0, false
}

func (m Model) answer(i int) (tea.Model, tea.Cmd) {
	if _, err := m.session.Answer(i); err != nil {
		m.err = err
	}
	return m, nil
}

func (m Model) next() (tea.Model, tea.Cmd) {
	if err := m.session.Next(); err != nil {
		m.err = err
		m.session.Abandon()
		return m, tea.Quit
	}
	m.selected = 0
	if m.session.Phase() == drill.PhaseComplete {
		return m, tea.Quit
	}
	return m, nil
}

// Session returns the underlying drill session.
func (m Model) Session() *drill.Session { return m.session }

// Err returns the error that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.quitting || m.session.Phase() == drill.PhaseComplete {
		return v
	}
	v.SetContent(m.render())
	return v
}

func (m Model) render() string {
	var b strings.Builder

	answered, total := m.session.Progress()
	info := fmt.Sprintf("Q %d/%d  %s %d", answered+1, total, correctStyle.Render("*"), m.session.Score())
	if left := m.session.Remaining(); left >= 0 {
		info += fmt.Sprintf("  %s %d:%02d", rememberStyle.Render("T"), int(left.Minutes()), int(left.Seconds())%60)
	}
	b.WriteString(titleStyle.Render(m.title) + "  " + infoStyle.Render(info))
	b.WriteString("\n\n")

	q := m.session.Current()
	b.WriteString(promptStyle.Render(q.Prompt))
	b.WriteString("\n\n")

	fb := m.session.LastFeedback()
	showFeedback := m.session.Phase() == drill.PhaseFeedback && fb != nil

	for i, opt := range q.Options {
		label := optionLabels[i%len(optionLabels)]
		prefix := "  "
		if i == m.selected && !showFeedback {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, label, opt)

		switch {
		case showFeedback && i == q.CorrectIndex:
			line = correctStyle.Render(line)
		case showFeedback && i == fb.Chosen:
			line = incorrectStyle.Render(line)
		case showFeedback:
			line = dimStyle.Render(line)
		case i == m.selected:
			line = selectedStyle.Render(line)
		default:
			line = optionStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if showFeedback {
		b.WriteString("\n")
		if fb.Correct {
			b.WriteString(correctStyle.Render("Correct!"))
		} else {
			b.WriteString(incorrectStyle.Render("Not quite. The answer is: " + q.CorrectOption()))
		}
		b.WriteString("\n")
		if q.Explanation != "" {
			b.WriteString(optionStyle.Render(q.Explanation) + "\n")
		}
		if q.Remember != "" {
			b.WriteString(rememberStyle.Render("Remember: "+q.Remember) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.confirmQuit:
		b.WriteString(incorrectStyle.Render("End this drill now? Progress so far is saved. (y/n)"))
	case showFeedback:
		b.WriteString(hintStyle.Render("enter: next question  q: quit"))
	default:
		b.WriteString(hintStyle.Render("1-4 or a-d: answer  up/down + enter: select  q: quit"))
	}

	width := m.width
	if width <= 0 || width > 100 {
		width = 100
	}
	return cardStyle.Width(width - 2).Render(b.String())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run shows the session until it completes or the learner quits, and
// returns the session result.
func Run(session *drill.Session, title string) (drill.Result, error) {
	p := tea.NewProgram(NewModel(session, title))
	final, err := p.Run()
	if err != nil {
		return session.Abandon(), fmt.Errorf("run drill: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return session.Abandon(), fm.err
	}
	if res, err := session.Result(); err == nil {
		return res, nil
	}
	return session.Abandon(), nil
}
