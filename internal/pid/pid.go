package pid

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"codeberg.org/mutker/vcmclient/internal/errors"
)

const filePrefix = "vcmclient-module"

// Path returns the PID file guarding module in dir. An empty dir means the
// system temp directory.
func Path(dir string, module int) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("%s%d.pid", filePrefix, module))
}

// File is a held PID file.
type File struct {
	path string
}

// Acquire writes the current process ID to the PID file for module. It
// fails with ErrAlreadyRunning while another live process holds it; files
// left behind by dead processes are taken over.
func Acquire(dir string, module int) (*File, error) {
	errFactory := errors.New()
	path := Path(dir, module)

	if owner, ok := readPID(path); ok && owner != os.Getpid() && running(owner) {
		return nil, errFactory.WithData(errors.ErrAlreadyRunning,
			fmt.Sprintf("module %d is driven by pid %d", module, owner))
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return nil, errFactory.Wrap(errors.ErrInternal, err)
	}

	return &File{path: path}, nil
}

func (f *File) Path() string {
	return f.path
}

// Release removes the PID file if this process still owns it.
func (f *File) Release() error {
	owner, ok := readPID(f.path)
	if !ok || owner != os.Getpid() {
		return nil
	}

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Guard holds the PID file of the currently selected module and moves it
// when the selection changes.
type Guard struct {
	mu   sync.Mutex
	dir  string
	file *File
}

func NewGuard(dir string) *Guard {
	return &Guard{dir: dir}
}

// Switch acquires module and then releases the previously held module. On
// failure the previous file is kept.
func (g *Guard) Switch(module int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	next, err := Acquire(g.dir, module)
	if err != nil {
		return err
	}

	if g.file != nil && g.file.path != next.path {
		if err := g.file.Release(); err != nil {
			return err
		}
	}
	g.file = next

	return nil
}

func (g *Guard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.file == nil {
		return nil
	}
	err := g.file.Release()
	g.file = nil
	return err
}

func readPID(path string) (int, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func running(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
