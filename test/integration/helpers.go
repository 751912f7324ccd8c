package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// BuildOtawalk builds the otawalk binary and returns the path to it
func BuildOtawalk(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if runtime.GOOS == "windows" {
		t.Skip("integration tests use shell script updaters")
	}

	binPath := filepath.Join(t.TempDir(), "otawalk")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/otawalk")
	cmd.Dir = filepath.Join("..", "..")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to build otawalk binary: %v\nOutput: %s", err, output)
	}

	return binPath
}

// RunOtawalk runs the otawalk binary in dir with the given arguments
func RunOtawalk(t *testing.T, binPath, dir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(binPath, args...)
	cmd.Dir = dir
	// keep the developer's config file out of the test
	cmd.Env = append(os.Environ(), "HOME="+dir)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run otawalk: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

// RunOtawalkExpectSuccess runs otawalk and expects it to succeed
func RunOtawalkExpectSuccess(t *testing.T, binPath, dir string, args ...string) string {
	t.Helper()

	stdout, stderr, exitCode := RunOtawalk(t, binPath, dir, args...)
	if exitCode != 0 {
		t.Fatalf("otawalk command failed with exit code %d\nArgs: %v\nStdout: %s\nStderr: %s",
			exitCode, args, stdout, stderr)
	}

	return stdout + stderr
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadFile returns the contents of path
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	return string(data)
}
