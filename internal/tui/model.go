// Package tui provides the BubbleTea terminal surface for a toast stack.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastack/internal/adapter/input"
	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/lifecycle"
	"github.com/jmylchreest/toastack/internal/measure"
	"github.com/jmylchreest/toastack/internal/stack"
	"github.com/jmylchreest/toastack/internal/store"
)

// stackTop is the first terminal row of the stack, below the header.
const stackTop = 2

const collapseLabel = "[ Collapse All ]"

// Model is the main TUI model.
type Model struct {
	// Configuration
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	// Stack and its drawing helpers
	stack  *stack.Stack[string]
	cards  *cardRenderer
	timers *teaScheduler // nil when a scheduler was injected

	// Components
	help help.Model
	keys KeyMap

	// State
	selected int
	pressed  string // key of the card under an active pointer
	showHelp bool
	width    int
	height   int
	ready    bool

	// Status message
	statusMsg string
	statusErr bool

	// Refresh channel subscription
	refreshCh <-chan store.ChangeEvent
}

// Options configures a Model.
type Options struct {
	Config *config.Config
	// Store is the host toast list the stack mirrors. Optional.
	Store *store.Store
	// Scheduler runs transition timers. Defaults to timers delivered on
	// the tea event loop.
	Scheduler lifecycle.Scheduler
	Logger    *slog.Logger
}

// New creates a new TUI model.
func New(opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		cfg:    cfg,
		store:  opts.Store,
		logger: logger,
		cards:  newCardRenderer(cfg.Terminal),
		help:   help.New(),
		keys:   DefaultKeyMap(),
	}

	sched := opts.Scheduler
	if sched == nil {
		m.timers = newTeaScheduler()
		sched = m.timers
	}

	st, err := stack.New(m.cards.render, stack.Options{
		Config:    cfg,
		Scheduler: sched,
		OnRemove:  m.removed,
		Logger:    logger,
	})
	if err != nil {
		return Model{}, fmt.Errorf("create stack: %w", err)
	}
	m.stack = st
	m.cards.stack = st
	st.SetMeasurer(measure.MeasurerFunc(m.cards.measure))

	// Subscribe to store changes if available
	if m.store != nil {
		m.refreshCh = m.store.Subscribe()
	}
	return m, nil
}

// Stack returns the underlying toast stack.
func (m Model) Stack() *stack.Stack[string] {
	return m.stack
}

// removed drops a toast from the host store once its exit finished, so a
// reload does not bring it back.
func (m Model) removed(key string) {
	if m.store != nil {
		m.store.Remove(key)
	}
	m.logger.Debug("toast removed", "toast_id", key)
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadToasts, m.watchForChanges, tick()}
	if m.timers != nil {
		cmds = append(cmds, m.timers.wait)
	}
	return tea.Batch(cmds...)
}

type loadToastsMsg struct{}

type refreshMsg struct{}

type tickMsg time.Time

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

func (m Model) loadToasts() tea.Msg {
	return loadToastsMsg{}
}

// watchForChanges waits for the next store change.
func (m Model) watchForChanges() tea.Msg {
	if m.refreshCh == nil {
		return nil
	}
	if _, ok := <-m.refreshCh; !ok {
		return nil
	}
	return refreshMsg{}
}

// tick refreshes card ages once per second.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.BlurMsg:
		if m.pressed != "" {
			m.stack.Leave(m.pressed)
			m.pressed = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.stack.Resize()
		return m, nil

	case timerMsg:
		msg.fire()
		m.clampSelection()
		if m.timers != nil {
			return m, m.timers.wait
		}
		return m, nil

	case loadToastsMsg:
		m.sync()
		return m, nil

	case refreshMsg:
		m.sync()
		return m, m.watchForChanges

	case tickMsg:
		return m, tick()

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

// sync reconciles the stack with the host store.
func (m *Model) sync() {
	if m.store == nil {
		return
	}
	res, err := m.stack.Sync(m.store.All())
	if err != nil {
		m.logger.Debug("sync skipped toasts", "error", err)
	}
	if res.Changed() {
		m.logger.Debug("stack synced",
			"added", len(res.Added),
			"updated", len(res.Updated),
			"dismissed", len(res.Dismissed))
	}
	m.clampSelection()
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.liveKeys())-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		m.stack.Toggle()
		return m, nil

	case key.Matches(msg, m.keys.Collapse):
		m.stack.Collapse()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		live := m.liveKeys()
		if m.selected >= len(live) {
			return m, nil
		}
		return m, m.dismiss(live[m.selected])

	case key.Matches(msg, m.keys.DismissAll):
		if n := m.stack.DismissAll(); n > 0 {
			return m, status(fmt.Sprintf("Dismissed %d toasts", n), false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadToasts
	}
	return m, nil
}

func (m Model) dismiss(key string) tea.Cmd {
	if !m.stack.Dismiss(key) {
		return nil
	}
	m.logger.Debug("toast dismissed", "toast_id", key)
	return status("Toast dismissed", false)
}

// handleMouse maps terminal mouse events onto stack pointer events.
// Cell coordinates are converted to layout pixels with the terminal
// cell size.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	term := m.cards.term
	x := float64(msg.X) * term.CellWidth
	y := msg.Y - stackTop

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if msg.Y == 0 && m.onCollapseButton(msg.X) {
			m.stack.Collapse()
			return m, nil
		}
		k, ok := m.stack.At(float64(y)*term.CellHeight + term.CellHeight/2)
		if !ok {
			return m, nil
		}
		if g, ok := m.geometryOf(k); ok && g.closeHit(msg.X, y) {
			return m, m.dismiss(k)
		}
		if m.stack.Down(k, x) {
			m.pressed = k
			if i := slices.Index(m.liveKeys(), k); i >= 0 {
				m.selected = i
			}
		}

	case tea.MouseActionMotion:
		if m.pressed != "" {
			m.stack.Move(m.pressed, x)
		}

	case tea.MouseActionRelease:
		if m.pressed == "" {
			return m, nil
		}
		outcome := m.stack.Up(m.pressed)
		m.logger.Debug("pointer released", "toast_id", m.pressed, "outcome", outcome.String())
		m.pressed = ""
		m.clampSelection()
	}
	return m, nil
}

// liveKeys returns the keys of toasts that still accept input.
func (m Model) liveKeys() []string {
	var keys []string
	for _, c := range m.stack.Cards() {
		if c.Phase != lifecycle.PhaseExiting {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

func (m *Model) clampSelection() {
	n := len(m.liveKeys())
	if m.selected >= n {
		m.selected = max(0, n-1)
	}
}

func (m Model) geometryOf(key string) (geometry, bool) {
	heights := m.stack.Heights()
	fallback := m.cfg.Stack.FallbackHeight
	for _, c := range m.stack.Cards() {
		if c.Key == key {
			return m.cards.geometry(c, heights, fallback), true
		}
	}
	return geometry{}, false
}

// header renders the title row and reports the column of the collapse
// control, or -1 when it is hidden.
func (m Model) header() (string, int) {
	left := titleStyle.Render("toastack") + dimStyle.Render(
		fmt.Sprintf("  %s · %d", m.stack.Mode(), m.stack.Live()))
	if !m.stack.CanCollapse() {
		return left, -1
	}
	col := lipgloss.Width(left) + 2
	return left + "  " + buttonStyle.Render(collapseLabel), col
}

func (m Model) onCollapseButton(x int) bool {
	_, col := m.header()
	return col >= 0 && x >= col && x < col+lipgloss.Width(collapseLabel)
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	head, _ := m.header()
	body := m.viewStack()

	var footer string
	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			style = errStyle
		}
		footer = style.Render(m.statusMsg)
	} else {
		footer = m.help.View(m.keys)
	}

	return head + "\n\n" + body + "\n" + footer
}

// viewStack composites the cards back to front so the frontmost card
// overwrites the rows it covers.
func (m Model) viewStack() string {
	cards := m.stack.Cards()
	if len(cards) == 0 {
		return dimStyle.Render("No toasts")
	}

	slices.SortStableFunc(cards, func(a, b stack.Card[string]) int {
		return a.Placement.ZIndex - b.Placement.ZIndex
	})

	live := m.liveKeys()
	var selectedKey string
	if m.stack.Mode().Expanded() && m.selected < len(live) {
		selectedKey = live[m.selected]
	}

	heights := m.stack.Heights()
	fallback := m.cfg.Stack.FallbackHeight
	var canvas []string
	for _, c := range cards {
		g := m.cards.geometry(c, heights, fallback)
		lines := strings.Split(m.cards.frame(c, c.Key == selectedKey), "\n")
		for j, line := range lines {
			row := g.top + j
			for len(canvas) <= row {
				canvas = append(canvas, "")
			}
			canvas[row] = shift(line, g.left, m.width)
		}
	}

	if limit := m.height - stackTop - 2; limit > 0 && len(canvas) > limit {
		canvas = canvas[:limit]
	}
	return strings.Join(canvas, "\n")
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config  *config.Config
	Store   *store.Store
	Adapter input.InputAdapter
	// FeedPath is a toast file to watch for changes (empty = no watching).
	FeedPath string
	Logger   *slog.Logger
	Output   io.Writer
}

// Run starts the TUI with the given options.
func Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := opts.Store
	if s == nil {
		s = store.NewStore(cfg.DefaultCategory())
	}
	defer s.Close()

	// Import from adapter on startup
	if opts.Adapter != nil {
		importCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := importFromAdapter(importCtx, opts.Adapter, s)
		cancel()
		if err != nil {
			logger.Warn("failed to import toasts", "source", opts.Adapter.Name(), "error", err)
		}
	}

	// Start file watcher if a feed path is provided
	if opts.FeedPath != "" {
		feed := input.NewFileAdapter(opts.FeedPath)
		watcher, err := store.NewFileWatcher(s, opts.FeedPath, feed.Import, logger)
		if err != nil {
			logger.Warn("failed to create file watcher", "path", opts.FeedPath, "error", err)
		} else if err := watcher.Start(ctx); err != nil {
			logger.Warn("failed to start file watcher", "path", opts.FeedPath, "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	m, err := New(Options{Config: cfg, Store: s, Logger: logger})
	if err != nil {
		return err
	}
	defer m.timers.stop()

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx), tea.WithReportFocus()}
	if cfg.Terminal.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	_, err = tea.NewProgram(m, progOpts...).Run()
	return err
}

func importFromAdapter(ctx context.Context, a input.InputAdapter, s *store.Store) error {
	toasts, err := a.Import(ctx)
	if err != nil {
		return err
	}
	_, err = s.AddBatch(toasts, a.Name())
	return err
}
