package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Process is a handle to a started ffmpeg subprocess. Wait runs in its own
// goroutine so callers can poll Exited between cancellation checks.
type Process struct {
	binary  string
	args    []string
	started time.Time

	mu      sync.RWMutex
	cmd     *exec.Cmd
	doneCh  chan struct{}
	waitErr error
}

// NewProcess creates a process handle for the given binary and arguments.
func NewProcess(binary string, args []string) *Process {
	return &Process{
		binary: binary,
		args:   args,
		doneCh: make(chan struct{}),
	}
}

// String returns the command line for logging.
func (p *Process) String() string {
	s := p.binary
	for _, a := range p.args {
		s += " " + a
	}
	return s
}

// Start launches the subprocess and begins collecting its exit status.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("process already started")
	}

	cmd := exec.Command(p.binary, p.args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", p.binary, err)
	}
	p.cmd = cmd
	p.started = time.Now()

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(p.doneCh)
	}()

	return nil
}

// Exited reports whether the subprocess has finished.
func (p *Process) Exited() bool {
	select {
	case <-p.doneCh:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the subprocess exits.
func (p *Process) Done() <-chan struct{} {
	return p.doneCh
}

// ExitErr returns the Wait error once the process has exited.
func (p *Process) ExitErr() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.waitErr
}

// ExitCode returns the exit code after the process has exited, or -1.
func (p *Process) ExitCode() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cmd == nil || p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Terminate asks the subprocess to stop. SIGINT lets ffmpeg finalize and
// close its output before exiting.
func (p *Process) Terminate() error {
	p.mu.RLock()
	cmd := p.cmd
	p.mu.RUnlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(os.Interrupt)
}

// Kill forcibly stops the subprocess.
func (p *Process) Kill() error {
	p.mu.RLock()
	cmd := p.cmd
	p.mu.RUnlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// Duration returns how long the process has been running.
func (p *Process) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.started.IsZero() {
		return 0
	}
	return time.Since(p.started)
}
