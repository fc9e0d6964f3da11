//go:build unix

package main

import (
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "RUNNER_TEST_HELPER"

func TestRun_ClosedStdoutKeepsChildExitCode(t *testing.T) {
	if os.Getenv(helperEnv) == "1" {
		os.Exit(run([]string{"/bin/sh", "-c", "sleep 0.3; echo a; echo b; echo c; exit 3"}))
	}

	r, w, err := os.Pipe()
	require.NoError(t, err)
	require.NoError(t, r.Close())

	cmd := exec.Command(os.Args[0], "-test.run=^TestRun_ClosedStdoutKeepsChildExitCode$")
	cmd.Env = append(os.Environ(), helperEnv+"=1", "RUNNER_LOG_LEVEL=error")
	cmd.Stdout = w
	err = cmd.Run()
	require.NoError(t, w.Close())

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode(), "runner ended with %s", exitErr.ProcessState)
}
