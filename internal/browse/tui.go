// Package browse is a terminal browser over the stored job feed.
package browse

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfeed/internal/filter"
	"github.com/amishk599/jobfeed/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Querier answers paginated job queries.
type Querier interface {
	Query(ctx context.Context, c filter.Criteria) (model.Page, error)
}

// pageLoadedMsg is sent when an async page query completes.
type pageLoadedMsg struct {
	criteria filter.Criteria
	page     model.Page
	err      error
}

type browseModel struct {
	querier  Querier
	criteria filter.Criteria
	page     model.Page
	loading  bool
	errText  string

	listViewport viewport.Model
	cursor       int
	width        int
	height       int
	ready        bool

	view           viewState
	detailViewport viewport.Model
}

func newModel(q Querier, c filter.Criteria) browseModel {
	return browseModel{querier: q, criteria: c, loading: true}
}

func (m browseModel) Init() tea.Cmd {
	return m.loadPageCmd(m.criteria)
}

func (m browseModel) loadPageCmd(c filter.Criteria) tea.Cmd {
	q := m.querier
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		page, err := q.Query(ctx, c)
		return pageLoadedMsg{criteria: c, page: page, err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, model.ErrNoMatchingRecords) && msg.criteria.Page > 1 {
				m.errText = "no more pages"
			} else {
				m.errText = msg.err.Error()
			}
			m.recalcContent()
			return m, nil
		}
		m.errText = ""
		m.criteria = msg.criteria
		m.page = msg.page
		m.cursor = 0
		m.listViewport.SetYOffset(0)
		m.recalcContent()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.page.Jobs)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.page.Jobs)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "n", "pgdown":
		if m.loading || (m.page.TotalPages > 0 && m.criteria.Page >= m.page.TotalPages) {
			return m, nil
		}
		return m.goToPage(m.criteria.Page + 1)
	case "p", "pgup":
		if m.loading || m.criteria.Page <= 1 {
			return m, nil
		}
		return m.goToPage(m.criteria.Page - 1)
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) goToPage(n int) (tea.Model, tea.Cmd) {
	next := m.criteria
	next.Page = n
	m.loading = true
	return m, m.loadPageCmd(next)
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if j, ok := m.selected(); ok && j.CompanyWebsite != nil && *j.CompanyWebsite != model.NotAvailable {
			openURL(*j.CompanyWebsite)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	j, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.view = viewDetail
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detailViewport.SetContent(renderDetail(j))
	return m, nil
}

func (m browseModel) selected() (model.Job, bool) {
	if m.cursor < 0 || m.cursor >= len(m.page.Jobs) {
		return model.Job{}, false
	}
	return m.page.Jobs[m.cursor], true
}

func (m *browseModel) ensureCursorVisible() {
	cursorTop := m.cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < m.listViewport.YOffset {
		m.listViewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(cursorBottom - m.listViewport.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	width := max(m.width-2, 20)
	height := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.listViewport.Width = width
		m.listViewport.Height = height
	}
	if m.view == viewDetail {
		m.detailViewport.Width = max(m.width-4, 20)
		m.detailViewport.Height = height
	}
	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	if !m.ready {
		return
	}
	m.listViewport.SetContent(renderJobs(m.page.Jobs, m.cursor))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	header := " Jobs"
	var filters []string
	if m.criteria.Title != "" {
		filters = append(filters, "title~"+m.criteria.Title)
	}
	if m.criteria.Location != "" {
		filters = append(filters, "location~"+m.criteria.Location)
	}
	if len(filters) > 0 {
		header += " [" + strings.Join(filters, ", ") + "]"
	}
	if m.loading {
		header += "  (loading...)"
	}

	content := borderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())

	status := fmt.Sprintf(" page %d/%d | %d total    ↑/↓ cursor  n/p page  Enter detail  q quit",
		m.criteria.Page, max(m.page.TotalPages, 1), m.page.Total)
	if m.errText != "" {
		status = errorStyle.Render(" "+m.errText) + status
	}

	return headerStyle.Render(header) + "\n" + content + "\n" + statusBarStyle.Width(m.width).Render(status)
}

func (m browseModel) viewDetail() string {
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	status := statusBarStyle.Width(m.width).Render(" o open company site  esc/backspace back  ↑/↓ scroll  q quit")
	return headerStyle.Render(" Job Details") + "\n" + content + "\n" + status
}

func renderDetail(j model.Job) string {
	var b strings.Builder
	addField := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.CompanyName)
	addField("Location", j.Location)
	addField("Type", j.EmploymentType)
	addField("Salary", j.SalaryRange)
	addField("Industry", j.Industry)
	b.WriteByte('\n')

	addField("Website", optional(j.CompanyWebsite))
	years := model.NotAvailable
	if j.YearsExperience != nil {
		years = fmt.Sprintf("%d", *j.YearsExperience)
	}
	addField("Experience", years)
	skills := model.NotAvailable
	if len(j.Skills) > 0 {
		skills = strings.Join(j.Skills, ", ")
	}
	addField("Skills", skills)
	b.WriteByte('\n')

	addField("Posted", formatPosted(j.PostedAt))
	addField("Job ID", j.ID)
	return b.String()
}

func renderJobs(jobs []model.Job, cursor int) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt, subtitleSt, prefix := jobTitleStyle, jobSubtitleStyle, "  "
		if i == cursor {
			titleSt, subtitleSt, prefix = selectedJobTitleStyle, selectedJobSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.Title))
		b.WriteByte('\n')
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", j.CompanyName, j.Location, formatPosted(j.PostedAt))))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatPosted(t time.Time) string {
	if t.IsZero() || t.Unix() == 0 {
		return "n/a"
	}
	return t.UTC().Format("2006-01-02")
}

func optional(s *string) string {
	if s == nil {
		return model.NotAvailable
	}
	return *s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the interactive browser starting at criteria and blocks until
// the user quits.
func Run(q Querier, criteria filter.Criteria) error {
	p := tea.NewProgram(newModel(q, criteria), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
