// Package proc runs server control commands under a pseudo-terminal and
// streams their output to a log sink, line by line.
package proc

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/goofcode/just-start-server/internal/app"
)

// Process is one command running under a pty.
type Process struct {
	cmd  *exec.Cmd
	ptmx *os.File

	mu     sync.Mutex
	done   chan struct{}
	exited bool
	err    error
}

// Command describes what to run.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// Start launches the command under a pty and streams its output to sink
// until the process exits. The process is not bound to ctx: server
// processes outlive the request that started them.
func Start(cmd Command, sink app.LogSink) (*Process, error) {
	if sink == nil {
		sink = app.NopSink{}
	}

	c := exec.Command(cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = os.Environ()
	for k, v := range cmd.Env {
		c.Env = append(c.Env, fmt.Sprintf("%s=%s", k, v))
	}

	ptmx, err := pty.Start(c)
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", cmd.Name, err)
	}

	p := &Process{
		cmd:  c,
		ptmx: ptmx,
		done: make(chan struct{}),
	}

	go p.drain(sink)
	return p, nil
}

// Run executes the command to completion, streaming output to sink. ctx
// bounds the wait; on cancellation the process is terminated.
func Run(ctx context.Context, cmd Command, sink app.LogSink) error {
	p, err := Start(cmd, sink)
	if err != nil {
		return err
	}

	select {
	case <-p.done:
		return p.Err()
	case <-ctx.Done():
		p.Terminate(2 * time.Second)
		return ctx.Err()
	}
}

// drain reads pty output line by line into the sink, then reaps the process.
func (p *Process) drain(sink app.LogSink) {
	scanner := bufio.NewScanner(p.ptmx)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sink.Append(scanner.Text())
	}

	err := p.cmd.Wait()
	p.ptmx.Close()

	p.mu.Lock()
	p.exited = true
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

// Done returns a channel closed when the process has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Running reports whether the process has not exited yet.
func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.exited
}

// Err returns the exit error, nil while running or on clean exit.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// PID returns the process id.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Terminate sends SIGTERM and escalates to SIGKILL after the grace period.
func (p *Process) Terminate(grace time.Duration) {
	if p.cmd.Process == nil {
		return
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-p.done:
	case <-time.After(grace):
		_ = p.cmd.Process.Kill()
	}
}
