package media

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes an external tool to completion and returns its output
// streams. Implementations must honor ctx cancellation by terminating the
// subprocess.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs tools via os/exec.
type ExecRunner struct{}

// Run executes name with args, capturing both output streams.
// When the context deadline killed the process the returned error is
// [context.DeadlineExceeded] rather than the opaque kill signal, so callers
// classify timeouts correctly.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = context.DeadlineExceeded
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
