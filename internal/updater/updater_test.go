package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "updater")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write fake updater: %v", err)
	}
	return path
}

func TestExecArgs(t *testing.T) {
	tests := []struct {
		name string
		exec Exec
		want []string
	}{
		{
			name: "without proxy",
			exec: Exec{Region: "CN", Mode: "manual"},
			want: []string{"A", "--region", "CN", "--mode", "manual"},
		},
		{
			name: "with proxy",
			exec: Exec{Region: "IN", Mode: "1", Proxy: "http://127.0.0.1:8080"},
			want: []string{"A", "--region", "IN", "--mode", "1", "-p", "http://127.0.0.1:8080"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.exec.Args("A"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecQuery(t *testing.T) {
	script := writeScript(t, `echo "$@"`)
	e := &Exec{Path: script, Region: "EU", Mode: "manual", Proxy: "socks5://proxy"}

	out, err := e.Query(context.Background(), "OTA_1")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got := strings.TrimSpace(out); got != "OTA_1 --region EU --mode manual -p socks5://proxy" {
		t.Errorf("Query() = %q", got)
	}
}

func TestExecQueryProcessError(t *testing.T) {
	script := writeScript(t, `echo "device not supported" >&2; exit 3`)
	e := &Exec{Path: script, Region: "CN", Mode: "manual"}

	_, err := e.Query(context.Background(), "OTA_1")
	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("Query() error = %v, want *QueryError", err)
	}
	if qerr.Stderr != "device not supported" {
		t.Errorf("QueryError.Stderr = %q", qerr.Stderr)
	}
	if errors.Is(err, ErrExecutableNotFound) {
		t.Error("process error must not be reported as a missing executable")
	}
}

func TestExecQueryTimeout(t *testing.T) {
	script := writeScript(t, `exec sleep 5`)
	e := &Exec{Path: script, Region: "CN", Mode: "manual", Timeout: 100 * time.Millisecond}

	_, err := e.Query(context.Background(), "OTA_1")
	if !errors.Is(err, ErrQueryTimeout) {
		t.Errorf("Query() error = %v, want %v", err, ErrQueryTimeout)
	}
}

func TestExecQueryMissingExecutable(t *testing.T) {
	e := &Exec{Path: filepath.Join(t.TempDir(), "missing-updater"), Region: "CN", Mode: "manual"}

	if _, err := e.Query(context.Background(), "OTA_1"); !errors.Is(err, ErrExecutableNotFound) {
		t.Errorf("Query() error = %v, want %v", err, ErrExecutableNotFound)
	}
	if _, err := e.LookPath(); !errors.Is(err, ErrExecutableNotFound) {
		t.Errorf("LookPath() error = %v, want %v", err, ErrExecutableNotFound)
	}
}
