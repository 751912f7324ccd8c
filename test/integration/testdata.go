package integration

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeUpdater answers by OTA version. It colors its output like the real
// updater does and logs its arguments to updater.log.
const fakeUpdater = `#!/bin/sh
echo "$@" >> updater.log
case "$1" in
  PJZ110_A)
    printf '\033[1;32m{"responseCode":200,"body":{"otaVersion":"PJZ110_B_generic","realOtaVersion":"PJZ110_B","realVersionName":"ColorOS 14.0.1:Beta/X","realAndroidVersion":"Android 14","securityPatch":"2024-02-05","publishedTime":1700000000000,"description":{"panelUrl":"https://example.com/changelog"},"components":[{"componentName":"my_stock","componentPackets":{"manualUrl":"https://example.com/stock.zip"}},{"componentName":"my_manifest","componentPackets":{"manualUrl":"https://example.com/manifest.zip"}}]}}\033[0m\n'
    ;;
  PJZ110_B)
    printf '{"responseCode":200,"body":{"realOtaVersion":"PJZ110_B"}}\n'
    ;;
  SLOW_A)
    exec sleep 5
    ;;
  FAIL_A)
    echo "server error" >&2
    exit 2
    ;;
  *)
    printf '{"responseCode":2004,"body":{}}\n'
    ;;
esac
`

// Workspace is a scratch directory laid out like an otawalk working copy
type Workspace struct {
	Dir       string
	ModelsDir string
	LinksDir  string
}

// NewWorkspace creates models/<name>/ota-version.txt for every model and
// installs the fake updater as ./updater
func NewWorkspace(t *testing.T, models map[string]string) *Workspace {
	t.Helper()

	ws := &Workspace{Dir: t.TempDir()}
	ws.ModelsDir = filepath.Join(ws.Dir, "models")
	ws.LinksDir = filepath.Join(ws.Dir, "links")

	for name, versions := range models {
		dir := filepath.Join(ws.ModelsDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "ota-version.txt"), []byte(versions), 0o644); err != nil {
			t.Fatalf("Failed to write version file: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(ws.Dir, "updater"), []byte(fakeUpdater), 0o755); err != nil {
		t.Fatalf("Failed to write fake updater: %v", err)
	}

	return ws
}

// Model returns the path of a file inside a model folder
func (ws *Workspace) Model(name string, elem ...string) string {
	return filepath.Join(append([]string{ws.ModelsDir, name}, elem...)...)
}
