package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/jt828/runner/pkg/observability"
)

// State is how the child ended.
type State int

const (
	StateUnknown State = iota
	StateExited
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

type process struct {
	p *os.Process
}

func newProcess(cmd *exec.Cmd) *process {
	return &process{p: cmd.Process}
}

func (p *process) PID() int {
	if p.p == nil {
		return -1
	}
	return p.p.Pid
}

func (p *process) Signal(sig os.Signal) error {
	return signalGroup(p.p, sig)
}

// exit maps how the child ended to runner's own exit code: the child's code,
// or 0 when there is none.
func (p *process) exit(ps *os.ProcessState) (int, State) {
	if ps == nil {
		return 0, StateUnknown
	}
	if status, ok := ps.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 0, StateKilled
	}
	code := ps.ExitCode()
	if code < 0 {
		return 0, StateUnknown
	}
	return code, StateExited
}

// forwardSignals relays the configured signals to the child until the
// returned func is called.
func (s *Supervisor) forwardSignals(p *process, log observability.Logger) (stop func()) {
	if len(s.signals) == 0 {
		return func() {}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.signals...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-ch:
				log.Info("forwarding signal to child", observability.String("signal", sig.String()))
				if err := p.Signal(sig); err != nil {
					log.Debug("forward signal", observability.Err(err))
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
