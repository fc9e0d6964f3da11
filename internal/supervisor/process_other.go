//go:build !unix

package supervisor

import (
	"os"
	"os/exec"
)

func isolate(*exec.Cmd) {}

func signalGroup(p *os.Process, sig os.Signal) error {
	return p.Signal(sig)
}
