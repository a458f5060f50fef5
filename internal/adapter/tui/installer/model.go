// Package installer is the interactive Bubble Tea front-end of the wizard.
// The controller is only touched from Update and View, which Bubble Tea
// runs on one goroutine; everything else reaches it through the Dispatcher.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"installer-shell/internal/adapter/tui/components"
	"installer-shell/internal/adapter/tui/theme"
	"installer-shell/internal/domain"
	"installer-shell/internal/usecase/wizard"
)

// Prompter shows the controller's confirmation questions as a dialog. Pass
// it as wizard.Deps.Confirmer and hand the same value to New.
type Prompter struct {
	dialog components.DialogModel
}

// NewPrompter creates a prompter with no open question.
func NewPrompter() *Prompter { return &Prompter{} }

// Confirm implements wizard.Confirmer.
func (p *Prompter) Confirm(title, question string, answer func(bool)) {
	p.dialog.Ask(title, question, answer)
}

// Config wires the model to a controller.
type Config struct {
	Controller *wizard.Controller
	Dispatcher *Dispatcher
	Prompter   *Prompter
	Logger     *slog.Logger
}

var maintenanceModes = []struct {
	mode  domain.RunMode
	label string
}{
	{domain.ModeMaintain, "Add or remove components"},
	{domain.ModeUpdate, "Update components"},
	{domain.ModeUninstall, "Remove all components"},
}

type state struct {
	ctx      context.Context
	c        *wizard.Controller
	d        *Dispatcher
	prompter *Prompter
	logger   *slog.Logger

	pages   components.PageListModel
	status  components.StatusBarModel
	path    components.PathFieldModel
	viewer  components.ViewerModel
	spinner spinner.Model

	// maintenance is set when the wizard started in a maintainer mode and
	// offers the mode choice on the introduction page.
	maintenance bool
	cursor      int
	accepted    bool
	message     string
	startErr    error

	closed bool
	code   domain.ExitCode
	width  int
	height int
}

// Model is the root Bubble Tea model of the installer.
type Model struct {
	s *state
}

// New creates the model and registers it as a controller observer.
func New(ctx context.Context, cfg Config) Model {
	if cfg.Prompter == nil {
		cfg.Prompter = NewPrompter()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Brand)

	s := &state{
		ctx:         ctx,
		c:           cfg.Controller,
		d:           cfg.Dispatcher,
		prompter:    cfg.Prompter,
		logger:      cfg.Logger.With("component", "tui"),
		status:      components.NewStatusBar(),
		path:        components.NewPathField("Installation folder", "/opt/product"),
		viewer:      components.NewViewer(),
		spinner:     sp,
		maintenance: cfg.Controller.Engine().Mode().IsMaintainer(),
		width:       80,
		height:      24,
	}
	s.path.Description = "Setup will install the product into this folder."
	s.resize(s.width, s.height)
	cfg.Controller.AddObserver(observer{s: s})
	return Model{s: s}
}

// ExitCode is the wizard's exit code once the program has ended.
func (m Model) ExitCode() domain.ExitCode { return m.s.code }

// Closed reports whether the wizard has closed.
func (m Model) Closed() bool { return m.s.closed }

// Init starts the spinner and schedules the first transition.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.s.spinner.Tick, func() tea.Msg { return startMsg{} })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := m.s
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg.Width, msg.Height)

	case startMsg:
		s.start()

	case drainMsg:
		if s.d != nil {
			s.d.Drain()
		}

	case spinner.TickMsg:
		s.spinner, cmd = s.spinner.Update(msg)

	case tea.KeyMsg:
		cmd = s.handleKey(msg)
	}

	if s.closed {
		return m, tea.Quit
	}
	return m, cmd
}

func (s *state) resize(w, h int) {
	s.width, s.height = w, h
	s.pages.SetWidth(theme.PageListWidth - 3)
	s.status.SetWidth(w)
	s.viewer.SetSize(w, h)
	s.path.Input.Width = theme.Clamp(s.contentWidth()-6, 20, theme.MaxContentWidth)
}

func (s *state) contentWidth() int {
	if s.width >= theme.MinSidebarWidth {
		return s.width - theme.PageListWidth - 4
	}
	return s.width - 4
}

func (s *state) start() {
	s.c.InitTargetDir(s.ctx)
	s.c.Start(s.ctx)
	s.checkPreconditions()
}

func (s *state) checkPreconditions() {
	s.startErr = s.c.CheckPreconditions(s.ctx)
	if s.startErr != nil {
		s.logger.Warn("precondition failed", "error", s.startErr)
	}
}

func (s *state) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.prompter.dialog.Update(msg) {
		return nil
	}
	if s.viewer.Visible {
		var cmd tea.Cmd
		s.viewer, cmd = s.viewer.Update(msg)
		return cmd
	}
	if s.startErr != nil {
		switch msg.String() {
		case "r":
			s.checkPreconditions()
		case "q", "esc", "ctrl+c":
			s.c.Abort(s.startErr)
		}
		return nil
	}

	switch msg.String() {
	case "ctrl+c":
		s.c.RequestCancel()
		return nil
	case "enter":
		s.advance()
		return nil
	case "esc":
		if s.c.CanGoBack() {
			s.message = ""
			s.c.GoBack(s.ctx)
		}
		return nil
	}
	return s.updatePage(msg)
}

func (s *state) advance() {
	res := s.c.Advance(s.ctx)
	switch {
	case res.Message != "":
		s.message = res.Message
	case !res.Moved && !res.Terminal:
		if page, ok := s.c.CurrentPage(); ok && !page.IsComplete() {
			s.message = "Complete this page to continue."
		}
	}
}

func (s *state) updatePage(msg tea.KeyMsg) tea.Cmd {
	switch s.c.CurrentID() {
	case domain.PageIntroduction:
		if s.maintenance {
			s.updateModeChoice(msg)
		}
	case domain.PageTargetDirectory:
		var cmd tea.Cmd
		s.path, cmd = s.path.Update(msg)
		if v := s.path.Value(); v != s.c.Engine().Value(domain.KeyTargetDir) {
			s.c.SetTargetDir(v)
			s.message = ""
		}
		return cmd
	case domain.PageComponentSelection:
		s.updateComponents(msg)
	case domain.PageLicenseCheck:
		switch msg.String() {
		case "a", " ":
			s.accepted = !s.accepted
			s.c.AcceptLicenses(s.accepted)
			s.message = ""
		case "v":
			s.viewer.Open("License Agreements", s.licenseMarkdown())
		}
	}
	return nil
}

func (s *state) updateModeChoice(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		s.cursor = max(s.cursor-1, 0)
	case "down", "j":
		s.cursor = min(s.cursor+1, len(maintenanceModes)-1)
	default:
		return
	}
	if err := s.c.SetMode(maintenanceModes[s.cursor].mode); err != nil {
		s.message = err.Error()
	}
}

func (s *state) updateComponents(msg tea.KeyMsg) {
	comps := s.c.Engine().Components()
	if len(comps) == 0 || s.c.Engine().Mode().IsUninstaller() {
		return
	}
	switch msg.String() {
	case "up", "k":
		s.cursor = max(s.cursor-1, 0)
	case "down", "j":
		s.cursor = min(s.cursor+1, len(comps)-1)
	case " ", "x":
		comp := comps[s.cursor]
		if err := s.c.SetComponentSelected(comp.Name, !comp.Selected); err != nil {
			s.message = err.Error()
			return
		}
		s.message = ""
	}
}

func (s *state) licenseMarkdown() string {
	var b strings.Builder
	for _, comp := range s.c.LicensedComponents() {
		fmt.Fprintf(&b, "# %s\n\n", displayName(comp))
		for _, l := range comp.Licenses {
			if l.Name != "" {
				fmt.Fprintf(&b, "## %s\n\n", l.Name)
			}
			if l.Text != "" {
				b.WriteString(l.Text)
				b.WriteString("\n\n")
			}
		}
	}
	return b.String()
}

func displayName(c domain.Component) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// observer keeps the model in step with controller transitions.
type observer struct {
	wizard.NopObserver
	s *state
}

func (o observer) PageEntered(p *wizard.Page) {
	o.s.message = ""
	o.s.cursor = 0
	switch p.ID() {
	case domain.PageIntroduction:
		for i, m := range maintenanceModes {
			if m.mode == o.s.c.Engine().Mode() {
				o.s.cursor = i
			}
		}
	case domain.PageTargetDirectory:
		o.s.path.SetValue(o.s.c.Engine().Value(domain.KeyTargetDir))
	case domain.PageLicenseCheck:
		o.s.accepted = p.IsComplete()
	}
}

func (o observer) ValidationFailed(_ *wizard.Page, message string) {
	o.s.message = message
}

func (o observer) Closed(code domain.ExitCode) {
	o.s.closed = true
	o.s.code = code
}
