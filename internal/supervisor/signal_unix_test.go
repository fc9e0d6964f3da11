//go:build unix

package supervisor

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/jt828/runner/internal/pipeline"
	"github.com/jt828/runner/internal/record"
	"github.com/jt828/runner/internal/sink"
	"github.com/jt828/runner/internal/span"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperScriptEnv = "SUPERVISOR_HELPER_SCRIPT"

// runHelper turns the test binary into a minimal runner when started by
// startHelper: it supervises the script from the environment, writes
// records to stdout and exits with the child's code.
func runHelper() {
	script := os.Getenv(helperScriptEnv)
	if script == "" {
		return
	}
	s := New(pipeline.NewProcessor(span.NewTable()), sink.NewStdout(), WithSignals(os.Interrupt))
	code, err := s.Run(context.Background(), "/bin/sh", "-c", script)
	if err != nil {
		os.Exit(1)
	}
	os.Exit(code)
}

// startHelper launches the helper in a process group of its own and
// streams its record messages.
func startHelper(t *testing.T, test, script string) (*exec.Cmd, <-chan string) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^"+test+"$")
	cmd.Env = append(os.Environ(), helperScriptEnv+"="+script)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	messages := make(chan string, 64)
	go func() {
		defer close(messages)
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			messages <- record.Record(sc.Text()).Get(record.KeyMessage).String()
		}
	}()
	return cmd, messages
}

func waitFor(t *testing.T, messages <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case m, ok := <-messages:
			require.True(t, ok, "helper output ended before %q", want)
			if m == want {
				return
			}
		case <-deadline:
			t.Fatalf("no %q from helper", want)
		}
	}
}

func TestSupervisor_ForwardsSignals(t *testing.T) {
	s, out := newSupervisor(t, WithSignals(syscall.SIGUSR1))

	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := s.Run(context.Background(), "/bin/sh", "-c", `trap 'exit 7' USR1; echo ready; while :; do sleep 0.01; done`)
		done <- result{code, err}
	}()

	require.Eventually(t, func() bool {
		return len(out.messages(record.Stdout)) == 1
	}, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, 7, r.code)
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit after the forwarded signal")
	}
}

func TestSupervisor_GroupInterruptReachesChildOnce(t *testing.T) {
	runHelper()

	cmd, messages := startHelper(t, "TestSupervisor_GroupInterruptReachesChildOnce",
		`trap 'echo got-int' INT; echo ready; i=0; while [ $i -lt 10 ]; do sleep 0.05; i=$((i+1)); done`)
	waitFor(t, messages, "ready")

	// What a terminal does on Ctrl-C: signal the foreground process group.
	require.NoError(t, syscall.Kill(-cmd.Process.Pid, syscall.SIGINT))

	var got []string
	for m := range messages {
		got = append(got, m)
	}
	require.NoError(t, cmd.Wait())

	n := 0
	for _, m := range got {
		if m == "got-int" {
			n++
		}
	}
	assert.Equal(t, 1, n, "records: %v", got)
}
