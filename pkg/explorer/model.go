// Package explorer is a terminal browser for a storage bucket served by the proxy.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/broadstream/qgem/biz/model/api"
	"github.com/broadstream/qgem/biz/service/gameconfig"
	"github.com/broadstream/qgem/pkg/client"
	"github.com/broadstream/qgem/pkg/storage"
)

const (
	requestTimeout = 15 * time.Second
	// GamesFile is written by the "g" key.
	GamesFile = "games.json"
)

// Source is the subset of the proxy client the explorer needs.
type Source interface {
	List(ctx context.Context, bucket string, q client.ListQuery) (*api.ListResponse, error)
	GetJSON(ctx context.Context, bucket, key string) (*api.ObjectResponse, error)
}

// Options configures a Model.
type Options struct {
	Bucket string
	// OutDir receives downloaded files and the games payload.
	OutDir string
	Limit  int
	// PublicHost resolves links of selected folders in the games payload.
	PublicHost string
}

type row struct {
	folder bool
	name   string
	full   string
	info   string
}

// Model is the bubbletea model of the explorer.
type Model struct {
	src  Source
	opts Options

	spinner spinner.Model

	loading     bool
	refreshing  bool
	currentPath []string
	err         string
	status      string
	data        *api.ListResponse
	downloading map[string]bool

	rows      []row
	cursor    int
	selection *gameconfig.Selection
	fileURLs  map[string]string
	width     int
}

type listedMsg struct {
	path string
	res  *api.ListResponse
	err  error
}

type downloadedMsg struct {
	name   string
	target string
	err    error
}

type gamesWrittenMsg struct {
	target string
	count  int
	err    error
}

// New builds an explorer rooted at the bucket root. It starts in the loading state.
func New(src Source, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	return Model{
		src:         src,
		opts:        opts,
		spinner:     s,
		loading:     true,
		downloading: make(map[string]bool),
		selection:   gameconfig.NewSelection(),
		fileURLs:    make(map[string]string),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Path returns the current folder as a slash separated key prefix.
func (m Model) Path() string {
	return strings.Join(m.currentPath, "/")
}

func (m Model) Loading() bool    { return m.loading }
func (m Model) Refreshing() bool { return m.refreshing }
func (m Model) Err() string      { return m.err }
func (m Model) Status() string   { return m.status }

// Downloading reports whether a download of name is in flight.
func (m Model) Downloading(name string) bool { return m.downloading[name] }

func (m Model) Selection() *gameconfig.Selection { return m.selection }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case listedMsg:
		if msg.path != m.Path() {
			// answer for a folder we already left
			return m, nil
		}
		m.loading, m.refreshing = false, false
		if msg.err != nil {
			m.err = userError(msg.err)
			return m, nil
		}
		m.err = ""
		m.data = msg.res
		m.buildRows()
		return m, nil

	case downloadedMsg:
		delete(m.downloading, msg.name)
		if msg.err != nil {
			m.err = userError(msg.err)
			if client.IsNotFound(msg.err) {
				m.err += " (press r to refresh the listing)"
			}
			return m, nil
		}
		m.status = "saved " + msg.target
		return m, nil

	case gamesWrittenMsg:
		if msg.err != nil {
			m.err = userError(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("wrote %d games to %s", msg.count, msg.target)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "r":
		if m.loading || m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.fetch()

	case "backspace":
		if len(m.currentPath) == 0 {
			return m, nil
		}
		m.currentPath = m.currentPath[:len(m.currentPath)-1]
		return m.navigate()

	case "enter":
		r, ok := m.current()
		if !ok {
			return m, nil
		}
		if r.folder {
			m.currentPath = append(m.currentPath[:len(m.currentPath):len(m.currentPath)], r.name)
			return m.navigate()
		}
		if m.downloading[r.name] {
			return m, nil
		}
		m.downloading[r.name] = true
		m.status = ""
		return m, m.download(r)

	case " ":
		r, ok := m.current()
		if !ok {
			return m, nil
		}
		m.selection.Toggle(m.resource(r))

	case "c":
		m.selection.Clear()
		m.status = "selection cleared"

	case "g":
		if m.selection.Len() == 0 {
			m.status = "nothing selected"
			return m, nil
		}
		return m, m.writeGames()
	}
	return m, nil
}

func (m Model) navigate() (tea.Model, tea.Cmd) {
	m.loading = true
	m.data = nil
	m.rows = nil
	m.cursor = 0
	m.err = ""
	return m, tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) resource(r row) gameconfig.Resource {
	return gameconfig.Resource{Bucket: m.opts.Bucket, Name: r.name, FullPath: r.full, Folder: r.folder}
}

func (m *Model) buildRows() {
	m.rows = make([]row, 0, len(m.data.GetFolders())+len(m.data.GetFiles()))
	for _, f := range m.data.GetFolders() {
		m.rows = append(m.rows, row{folder: true, name: f.Name, full: f.FullPath})
	}
	for _, f := range m.data.GetFiles() {
		m.rows = append(m.rows, row{name: f.Name, full: f.FullPath, info: describe(f)})
		m.fileURLs[f.FullPath] = f.URL
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m Model) fetch() tea.Cmd {
	src, bucket, p, limit := m.src, m.opts.Bucket, m.Path(), m.opts.Limit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := src.List(ctx, bucket, client.ListQuery{Path: p, Limit: limit})
		return listedMsg{path: p, res: res, err: err}
	}
}

func (m Model) download(r row) tea.Cmd {
	src, bucket, outDir := m.src, m.opts.Bucket, m.opts.OutDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		obj, err := src.GetJSON(ctx, bucket, r.full)
		if err != nil {
			return downloadedMsg{name: r.name, err: err}
		}
		target, err := saveObject(outDir, r.name, obj.Data)
		return downloadedMsg{name: r.name, target: target, err: err}
	}
}

func (m Model) writeGames() tea.Cmd {
	items := m.selection.Items()
	outDir, host := m.opts.OutDir, m.opts.PublicHost
	urls := make(map[string]string, len(m.fileURLs))
	for k, v := range m.fileURLs {
		urls[k] = v
	}
	return func() tea.Msg {
		payload := gameconfig.GamesPayload(items, func(bucket, fullPath string) string {
			if u, ok := urls[fullPath]; ok {
				return u
			}
			return storage.PublicURL(host, bucket, fullPath)
		})
		data, err := gameconfig.Marshal(payload)
		if err != nil {
			return gamesWrittenMsg{err: err}
		}
		target := filepath.Join(outDir, GamesFile)
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return gamesWrittenMsg{err: err}
		}
		return gamesWrittenMsg{target: target, count: len(items)}
	}
}

// saveObject re-serializes data as indented JSON into dir under the object's base name.
func saveObject(dir, name string, data json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	target := filepath.Join(dir, path.Base(name))
	if err := os.WriteFile(target, pretty, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

// userError renders err as a single line for the status bar.
func userError(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "the storage proxy did not answer in time"
	default:
		return "could not reach the storage proxy: " + err.Error()
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Background(lipgloss.Color("#25A065")).Padding(0, 1)
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	folderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#86AAEC")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
)
