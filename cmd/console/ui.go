package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/editor"
	"github.com/muesli/reflow/wordwrap"
)

const (
	PlaceHolderText  = "find milestone ms_met_jed, rename ..., validate, save, help"
	autosaveInterval = 30 * time.Second
	commandTimeout   = 10 * time.Second
)

// EditorUI is the BubbleTea model that runs the console.
// https://github.com/charmbracelet/bubbletea
type EditorUI struct {
	session        *editor.Session
	outputViewport viewport.Model
	metaViewport   viewport.Model
	textarea       textarea.Model
	ready          bool
	width          int
	height         int

	history []output
	status  string

	// Quit confirmation state
	showQuitModal bool
}

type autosaveTickMsg struct{}

var (
	outputPanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(1).
				PaddingLeft(3).
				PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	dirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewEditorUI(s *editor.Session) EditorUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	outVp := viewport.New(50, 20)
	outVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return EditorUI{
		session:        s,
		textarea:       ta,
		outputViewport: outVp,
		metaViewport:   metaVp,
	}
}

func (m EditorUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, autosaveTick())
}

func (m EditorUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.outputViewport, vpCmd = m.outputViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		outWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - outWidth - 6

		m.outputViewport.Width = outWidth - 2
		m.outputViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(outWidth - 4)

		m.ready = true
		m.writeOutput()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if len(m.session.Store.Dirty()) == 0 {
				return m, tea.Quit
			}
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			return m.handleCommand(input)
		}

	case autosaveTickMsg:
		// Runs inside Update so it never overlaps a command on the session.
		m.autosave()
		return m, autosaveTick()
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.outputViewport, vpCmd = m.outputViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handleCommand runs one command synchronously. Session commands touch only
// in-memory state or a single table write, so they never block for long.
func (m EditorUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out := runCommand(ctx, m.session, input)
	switch {
	case out.Quit:
		if len(m.session.Store.Dirty()) == 0 {
			return m, tea.Quit
		}
		m.showQuitModal = true
		return m, nil
	case out.Copy:
		out = m.copyLast()
	}

	out.Title = commandStyle.Render(":: "+input) + "\n" + out.Title
	m.history = append(m.history, out)
	m.writeOutput()
	m.writeMetadata()
	m.outputViewport.GotoBottom()
	return m, nil
}

func (m EditorUI) copyLast() output {
	if len(m.history) == 0 {
		return output{Title: "nothing to copy"}
	}
	last := m.history[len(m.history)-1]
	// Drop the echoed command line.
	if _, rest, ok := strings.Cut(last.Title, "\n"); ok {
		last.Title = rest
	}
	if err := clipboard.WriteAll(last.Text()); err != nil {
		return output{Title: "copy", Err: fmt.Errorf("clipboard unavailable: %w", err)}
	}
	return output{Title: "copied last output to the clipboard"}
}

func (m *EditorUI) autosave() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	written, err := m.session.Autosave(ctx)
	switch {
	case err != nil:
		m.status = "autosave failed: " + err.Error()
	case len(written) > 0:
		m.status = "drafted " + joinKinds(written) + " at " + time.Now().Format("15:04:05")
	default:
		return
	}
	m.writeMetadata()
}

func autosaveTick() tea.Cmd {
	return tea.Tick(autosaveInterval, func(time.Time) tea.Msg {
		return autosaveTickMsg{}
	})
}

func (m *EditorUI) writeOutput() {
	width := m.outputViewport.Width - 4
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("STORY EDITOR") + "\n\n")
	content.WriteString("Type a command below. Try help.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, out := range m.history {
		content.WriteString(formatOutput(out, width))
		content.WriteString("\n")
	}
	m.outputViewport.SetContent(content.String())
}

func formatOutput(out output, width int) string {
	var b strings.Builder
	if out.Title != "" {
		head, rest, found := strings.Cut(out.Title, "\n")
		if found {
			b.WriteString(head + "\n")
			b.WriteString(headingStyle.Render(wordwrap.String(rest, width)) + "\n")
		} else {
			b.WriteString(headingStyle.Render(wordwrap.String(head, width)) + "\n")
		}
	}
	for _, l := range out.Lines {
		b.WriteString(wordwrap.String(l, width) + "\n")
	}
	if out.Err != nil {
		b.WriteString(errorStyle.Render(wordwrap.String("Error: "+out.Err.Error(), width)) + "\n")
	}
	return b.String()
}

func (m *EditorUI) writeMetadata() {
	s := m.session
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("Session ID:\n")
	content.WriteString(s.ID.String()[:8] + "...\n\n")

	content.WriteString("Content:\n")
	for _, kind := range asset.Tables {
		if kind == asset.Flow {
			continue
		}
		n := s.Store.Len(kind)
		if n == 0 {
			continue
		}
		content.WriteString(fmt.Sprintf("• %s: %d\n", kind, n))
	}
	content.WriteString("\n")

	content.WriteString("Unsaved:\n")
	if dirty := s.Store.Dirty(); len(dirty) > 0 {
		for _, kind := range dirty {
			content.WriteString(dirtyStyle.Render("• "+string(kind)) + "\n")
		}
	} else {
		content.WriteString("None\n")
	}

	if m.status != "" {
		content.WriteString("\n" + promptStyle.Render(wordwrap.String(m.status, m.metaViewport.Width)) + "\n")
	}
	m.metaViewport.SetContent(content.String())
}

func (m EditorUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showQuitModal = false
			m.textarea.Focus()
			return m, textarea.Blink
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "s", "S":
				m.showQuitModal = false
				next, _ := m.handleCommand("save")
				em := next.(EditorUI)
				if len(em.session.Store.Dirty()) == 0 {
					return em, tea.Quit
				}
				return em, nil
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m EditorUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Unsaved Changes"))
	content.WriteString("\n\n")
	content.WriteString("These tables have changes that are not saved:\n")
	content.WriteString(dirtyStyle.Render(joinKinds(m.session.Store.Dirty())))
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press S to save and quit, Y to quit anyway, N to keep editing"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m EditorUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	outWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - outWidth - 6

	outPanel := outputPanelStyle.Width(outWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.outputViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", outWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, outPanel, metaPanel)
}
