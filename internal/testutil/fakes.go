package testutil

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// Processes is an in-memory process table.
type Processes struct {
	mu       sync.Mutex
	cmdlines map[int]string
	children map[int][]int
	killed   []int
	KillErr  error
}

// NewProcesses creates an empty process table.
func NewProcesses() *Processes {
	return &Processes{
		cmdlines: make(map[int]string),
		children: make(map[int][]int),
	}
}

// Add inserts a process with its command line under parent (0 for none).
func (p *Processes) Add(pid, parent int, cmdline string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cmdlines[pid] = cmdline
	if parent > 0 {
		p.children[parent] = append(p.children[parent], pid)
	}
}

// Vanish removes a process from the table but keeps it listed as a child,
// the way a process exits between a tree walk and its inspection.
func (p *Processes) Vanish(pid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cmdlines, pid)
}

// Killed returns the killed PIDs in order.
func (p *Processes) Killed() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.killed...)
}

func (p *Processes) FindByName(pattern string) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var pids []int
	for pid, cmd := range p.cmdlines {
		if strings.Contains(strings.ToLower(cmd), strings.ToLower(pattern)) {
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	return pids, nil
}

func (p *Processes) Kill(pid int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.KillErr != nil {
		return p.KillErr
	}
	if _, ok := p.cmdlines[pid]; !ok {
		return domain.ErrProcessGone
	}
	delete(p.cmdlines, pid)
	p.killed = append(p.killed, pid)
	return nil
}

func (p *Processes) IsRunning(pid int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.cmdlines[pid]
	return ok
}

func (p *Processes) Children(pid int) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.cmdlines[pid]; !ok {
		return nil, domain.ErrProcessGone
	}
	var found []int
	queue := []int{pid}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, c := range p.children[next] {
			found = append(found, c)
			queue = append(queue, c)
		}
	}
	return found, nil
}

func (p *Processes) Cmdline(pid int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd, ok := p.cmdlines[pid]
	if !ok {
		return "", domain.ErrProcessGone
	}
	return cmd, nil
}

func (p *Processes) GetCurrentPID() int { return os.Getpid() }

// FileSystem is an in-memory set of paths without home expansion.
type FileSystem struct {
	mu      sync.Mutex
	files   map[string]string
	deleted []string
}

// NewFileSystem creates a filesystem holding files (path -> content).
func NewFileSystem(files map[string]string) *FileSystem {
	fs := &FileSystem{files: make(map[string]string)}
	for k, v := range files {
		fs.files[k] = v
	}
	return fs
}

// Put creates or replaces a file.
func (f *FileSystem) Put(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

// Deleted returns the deleted paths in order.
func (f *FileSystem) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *FileSystem) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

func (f *FileSystem) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *FileSystem) ExpandHome(path string) string { return path }

func (f *FileSystem) ReadFile(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[path]
	if !ok {
		return "", os.ErrNotExist
	}
	return content, nil
}

// Windows reports a settable active window.
type Windows struct {
	mu     sync.Mutex
	window *domain.Window
	Err    error
}

// Focus makes w the active window; nil means nothing has focus.
func (w *Windows) Focus(win *domain.Window) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.window = win
}

func (w *Windows) ActiveWindow(ctx context.Context) (*domain.Window, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return nil, w.Err
	}
	if w.window == nil {
		return nil, nil
	}
	win := *w.window
	return &win, nil
}

// Multiplexer reports fixed pane PIDs.
type Multiplexer struct {
	PIDs []int
}

func (m *Multiplexer) ActivePanePIDs(ctx context.Context) ([]int, error) {
	return m.PIDs, nil
}

// Notifier records notifications.
type Notifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

// Sent returns the delivered notifications.
func (n *Notifier) Sent() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

func (n *Notifier) Notify(ctx context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return nil
}

// Question is one prompt shown by Prompter.
type Question struct {
	Message    string
	Identifier string
	YesNo      bool
}

// Prompter records questions and answers them with Answer. A nil Answer
// leaves every question pending.
type Prompter struct {
	mu        sync.Mutex
	questions []Question
	Answer    func(q Question) (any, error)
}

// Questions returns the questions asked so far.
func (p *Prompter) Questions() []Question {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Question(nil), p.questions...)
}

func (p *Prompter) PromptText(ctx context.Context, message, identifier string, reply func(any), fail func(error)) error {
	p.ask(Question{Message: message, Identifier: identifier}, reply, fail)
	return nil
}

func (p *Prompter) PromptYesNo(ctx context.Context, message, identifier string, reply func(any), fail func(error)) error {
	p.ask(Question{Message: message, Identifier: identifier, YesNo: true}, reply, fail)
	return nil
}

func (p *Prompter) ask(q Question, reply func(any), fail func(error)) {
	p.mu.Lock()
	p.questions = append(p.questions, q)
	answer := p.Answer
	p.mu.Unlock()

	if answer == nil {
		return
	}
	v, err := answer(q)
	if err != nil {
		fail(err)
		return
	}
	reply(v)
}

// Commands records started commands.
type Commands struct {
	mu      sync.Mutex
	started []string
}

// Started returns the started commands in order.
func (c *Commands) Started() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.started...)
}

func (c *Commands) Start(ctx context.Context, command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = append(c.started, command)
	return nil
}

// Store is an in-memory domain.TrackerStore.
type Store struct {
	mu        sync.Mutex
	records   map[string]domain.TrackerRecord
	daemon    *domain.Daemon
	heartbeat time.Time
	recordErr error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]domain.TrackerRecord)}
}

func (s *Store) Get(tracker, day string) (*domain.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[tracker+"|"+day]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// FailNextRecord makes the next Record call return err.
func (s *Store) FailNextRecord(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordErr = err
}

func (s *Store) Record(rec domain.TrackerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recordErr; err != nil {
		s.recordErr = nil
		return err
	}
	key := rec.Tracker + "|" + rec.Day
	if _, ok := s.records[key]; !ok {
		s.records[key] = rec
	}
	return nil
}

func (s *Store) List(tracker string) ([]domain.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TrackerRecord
	for _, rec := range s.records {
		if rec.Tracker == tracker {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	return out, nil
}

func (s *Store) Heartbeat(d domain.Daemon, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daemon = &d
	s.heartbeat = at
	return nil
}

func (s *Store) LastHeartbeat() (*domain.Daemon, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.daemon, s.heartbeat, nil
}

func (s *Store) Close() error { return nil }

var (
	_ domain.ProcessManager       = (*Processes)(nil)
	_ domain.FileSystemManager    = (*FileSystem)(nil)
	_ domain.WindowInspector      = (*Windows)(nil)
	_ domain.MultiplexerInspector = (*Multiplexer)(nil)
	_ domain.Notifier             = (*Notifier)(nil)
	_ domain.Prompter             = (*Prompter)(nil)
	_ domain.CommandRunner        = (*Commands)(nil)
	_ domain.TrackerStore         = (*Store)(nil)
	_ domain.Clock                = (*FakeClock)(nil)
)
