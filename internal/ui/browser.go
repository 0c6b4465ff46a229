package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Banh-Canh/trapview/internal/config"
	"github.com/Banh-Canh/trapview/internal/library"
	"github.com/Banh-Canh/trapview/internal/utils"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

const thresholdStep = 5

type model struct {
	session    *timelapse.Session
	prefetcher *library.Prefetcher
	frames     *frameRenderer
	root       string

	display      timelapse.Display
	showEpisodes bool
	err          error
	statusMsg    string
	width        int
	height       int
}

// Messages
type prefetchedMsg struct {
	batch library.Batch
}

type errMsg struct {
	err error
}

func (e errMsg) Error() string { return e.err.Error() }

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8E3F3")).
			Background(lipgloss.Color("#1a1b26")).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#3b4261")).
			Padding(0, 2).
			Bold(true)

	headerTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#bb9af7")).
				Bold(true)

	episodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a"))

	duplicateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68"))
)

// Browse runs the interactive browser over session until the user quits
func Browse(session *timelapse.Session, prefetcher *library.Prefetcher, root string, settings config.Settings) error {
	frameDir := config.GetRenderCacheDir()
	go cleanupFrameCache(frameDir)

	m := model{
		session:      session,
		prefetcher:   prefetcher,
		frames:       newFrameRenderer(frameDir, library.ParseFilter(settings.ImageFilter), settings.ImageQuality),
		root:         root,
		showEpisodes: true,
		width:        80,
		height:       24,
	}
	m = m.moveTo(0)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return m.prefetch()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case prefetchedMsg:
		kept := library.Adopt(m.session.Cache, msg.batch)
		utils.Logger.Debug("Prefetch adopted", zap.Int("kept", kept), zap.Int("decoded", len(msg.batch.Items)))
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		m.err = nil
		switch msg.String() {
		case "ctrl+c", "q":
			m.session.Close()
			return m, tea.Quit
		case "right", "l", "down", "j":
			return m.step(1)
		case "left", "h", "up", "k":
			return m.step(-1)
		case "]", "pgdown":
			return m.jumpEpisode(timelapse.Forward)
		case "[", "pgup":
			return m.jumpEpisode(timelapse.Backward)
		case "g", "home":
			m = m.moveTo(0)
			return m, m.prefetch()
		case "G", "end":
			m = m.moveTo(m.session.Sequence.Len() - 1)
			return m, m.prefetch()
		case "d":
			return m.advance(timelapse.CyclePreviousNext), nil
		case "c":
			return m.advance(timelapse.CycleCombined), nil
		case "+", "=":
			return m.adjustThreshold(thresholdStep), nil
		case "-":
			return m.adjustThreshold(-thresholdStep), nil
		case "e":
			m.showEpisodes = !m.showEpisodes
			return m, nil
		case "r":
			return m.reload()
		}
	}
	return m, nil
}

func (m model) step(delta int) (tea.Model, tea.Cmd) {
	current, _ := m.session.Cache.Current()
	m = m.moveTo(current + delta)
	return m, m.prefetch()
}

func (m model) jumpEpisode(dir timelapse.Direction) (tea.Model, tea.Cmd) {
	if _, err := m.session.JumpEpisode(dir); err != nil {
		m.statusMsg = edgeMessage(err)
		return m, nil
	}
	m = m.showCurrent()
	return m, m.prefetch()
}

func (m model) moveTo(index int) model {
	if _, err := m.session.MoveTo(index); err != nil {
		m.statusMsg = edgeMessage(err)
		return m
	}
	return m.showCurrent()
}

func (m model) showCurrent() model {
	bitmap, err := m.session.Cache.CurrentBitmap()
	if err != nil {
		m.err = err
		return m
	}
	m.display = timelapse.Display{State: timelapse.Unaltered, Image: bitmap.Image}
	if !bitmap.Displayable {
		m.statusMsg = fmt.Sprintf("File not displayable (%s)", bitmap.Placeholder)
	}
	return m
}

func (m model) advance(kind timelapse.CycleKind) model {
	display, err := m.session.Differences.Advance(kind)
	if err != nil {
		m.err = err
		return m
	}
	m.display = display
	if display.Status != timelapse.DiffOK {
		m.statusMsg = display.Status.String()
	}
	return m
}

func (m model) adjustThreshold(delta int) model {
	diff := m.session.Differences
	diff.SetThreshold(diff.Threshold() + delta)
	m.statusMsg = fmt.Sprintf("Difference threshold %d", diff.Threshold())

	state := diff.State()
	if state == timelapse.Unaltered {
		return m
	}
	img, err := m.differenceImage(state)
	if err != nil {
		m.statusMsg = timelapse.StatusOf(err).String()
		return m
	}
	m.display.Image = img
	return m
}

func (m model) differenceImage(state timelapse.DifferenceState) (image.Image, error) {
	diff := m.session.Differences
	switch state {
	case timelapse.Previous:
		return diff.ComputeDifference(-1)
	case timelapse.Next:
		return diff.ComputeDifference(1)
	default:
		return diff.ComputeCombinedDifference(diff.Threshold())
	}
}

// reload rescans the folder and invalidates every cached result
func (m model) reload() (tea.Model, tea.Cmd) {
	records, err := library.Scan(m.root)
	if err != nil {
		m.err = err
		return m, nil
	}
	seq, ok := m.session.Sequence.(*timelapse.Records)
	if !ok {
		m.err = fmt.Errorf("sequence cannot be reloaded")
		return m, nil
	}
	current, _ := m.session.Cache.Current()
	seq.Replace(records)
	m.session.Invalidate()
	m.frames.Forget()
	m = m.moveTo(max(0, min(current, seq.Len()-1)))
	m.statusMsg = fmt.Sprintf("Reloaded %d files", seq.Len())
	return m, m.prefetch()
}

func (m model) prefetch() tea.Cmd {
	current, ok := m.session.Cache.Current()
	if !ok || m.prefetcher == nil {
		return nil
	}
	cache := m.session.Cache
	plan := m.prefetcher.Plan(m.session.Sequence, current, cache.Contains)
	if len(plan) == 0 {
		return nil
	}
	version := cache.Cursor().SequenceVersion
	p := m.prefetcher
	return func() tea.Msg {
		batch, err := p.Decode(context.Background(), version, plan)
		if err != nil {
			return errMsg{err}
		}
		return prefetchedMsg{batch}
	}
}

func edgeMessage(err error) string {
	if errors.Is(err, timelapse.ErrIndexOutOfRange) {
		return "No more files in that direction"
	}
	return err.Error()
}

func (m model) View() string {
	if m.session.Sequence.Len() == 0 {
		return "No images found.\n\nPress 'q' to quit."
	}

	header := m.renderHeader()
	help := m.renderHelp()
	imageHeight := max(2, m.height-lipgloss.Height(header)-lipgloss.Height(help)-1)

	body, err := m.renderImage(m.width, imageHeight)
	if err != nil {
		body = warnStyle.Render(fmt.Sprintf("Cannot render image: %v", err))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatus(), help)
}

func (m model) renderImage(width, height int) (string, error) {
	record, err := m.session.Cache.Record()
	if err != nil {
		return "", err
	}
	identity := fmt.Sprintf("%s|%d|%s|%d", record, record.CaptureTime.UnixNano(),
		m.display.State, m.session.Differences.Threshold())
	return m.frames.Render(m.display.Image, identity, width, height)
}

func (m model) renderHeader() string {
	record, err := m.session.Cache.Record()
	if err != nil {
		return headerStyle.Width(m.width).Render("trapview")
	}
	current, _ := m.session.Cache.Current()

	parts := []string{
		headerTitleStyle.Render(record.String()),
		fmt.Sprintf("%d/%d", current+1, m.session.Sequence.Len()),
		record.CaptureTime.Format("2006-01-02 15:04:05"),
	}
	if m.showEpisodes {
		if entry := m.session.EpisodeInfo(); entry.InRun() {
			parts = append(parts, episodeStyle.Render("Episode "+m.session.Episodes.Format(entry)))
		} else {
			parts = append(parts, dimStyle.Render("Episode 1/1"))
		}
	}
	if entry := m.session.DuplicateInfo(); entry.InRun() {
		parts = append(parts, duplicateStyle.Render("Duplicate "+m.session.Duplicates.Format(entry)))
	}
	if m.display.State != timelapse.Unaltered {
		parts = append(parts, fmt.Sprintf("diff: %s (threshold %d)", m.display.State, m.session.Differences.Threshold()))
	}
	return headerStyle.Width(m.width).Render(strings.Join(parts, "  │  "))
}

func (m model) renderStatus() string {
	if m.err != nil {
		return warnStyle.Render("Error: " + m.err.Error())
	}
	return dimStyle.Render(m.statusMsg)
}

func (m model) renderHelp() string {
	return dimStyle.Render("←/→ step • [/] episode • g/G first/last • d prev/next diff • c combined • +/- threshold • e episodes • r reload • q quit")
}
