//go:build unix

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

// isolate puts the child in its own process group. A terminal's Ctrl-C then
// reaches the child only through forwarding, exactly once.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup delivers sig to the child's whole process group, as the
// terminal would have.
func signalGroup(p *os.Process, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return p.Signal(sig)
	}
	return syscall.Kill(-p.Pid, s)
}
