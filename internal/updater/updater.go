// Package updater runs the external OTA version-check executable.
package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/apex/log"
)

// DefaultTimeout bounds a single updater query.
const DefaultTimeout = 60 * time.Second

var (
	// ErrExecutableNotFound means the updater binary could not be run at all.
	// It is fatal to a whole batch.
	ErrExecutableNotFound = errors.New("updater executable not found")
	// ErrQueryTimeout means the updater did not finish within the timeout.
	ErrQueryTimeout = errors.New("updater query timed out")
)

// QueryError is returned when the updater exits with a non-zero status.
type QueryError struct {
	Stderr string
	Err    error
}

func (e *QueryError) Error() string {
	if len(e.Stderr) > 0 {
		return fmt.Sprintf("updater failed: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("updater failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Source returns the raw output describing the update that follows otaVersion.
type Source interface {
	Query(ctx context.Context, otaVersion string) (string, error)
}

// Exec is a Source backed by the updater executable.
type Exec struct {
	Path    string
	Region  string
	Mode    string
	Proxy   string
	Timeout time.Duration
}

// LookPath resolves the updater binary, returning ErrExecutableNotFound when
// it is missing.
func (e *Exec) LookPath() (string, error) {
	path, err := exec.LookPath(e.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, e.Path)
	}
	return path, nil
}

// Args returns the updater arguments for otaVersion.
func (e *Exec) Args(otaVersion string) []string {
	args := []string{otaVersion, "--region", e.Region, "--mode", e.Mode}
	if len(e.Proxy) > 0 {
		args = append(args, "-p", e.Proxy)
	}
	return args
}

// Query runs the updater and returns its stdout.
func (e *Exec) Query(ctx context.Context, otaVersion string) (string, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Path, e.Args(otaVersion)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	log.WithFields(log.Fields{
		"cmd":  e.Path,
		"args": strings.Join(cmd.Args[1:], " "),
	}).Debug("Running updater")

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrExecutableNotFound, err)
	}

	if err := cmd.Wait(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("%w after %s", ErrQueryTimeout, timeout)
		case ctx.Err() != nil:
			return "", ctx.Err()
		}
		return "", &QueryError{
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	if stderr.Len() > 0 {
		log.WithField("stderr", strings.TrimSpace(stderr.String())).Debug("updater")
	}

	return stdout.String(), nil
}
