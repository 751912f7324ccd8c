package integration

import (
	"path/filepath"
	"strings"
	"testing"
)

// TestWalkCommand tests the 'otawalk walk' command
func TestWalkCommand(t *testing.T) {
	binPath := BuildOtawalk(t)

	t.Run("follows chain", func(t *testing.T) {
		ws := NewWorkspace(t, map[string]string{
			"PJZ110":  "PJZ110_A # ColorOS: 14.0.0\n",
			"CPH2581": "CPH2581_A # ColorOS: 14.0.0\n",
		})

		RunOtawalkExpectSuccess(t, binPath, ws.Dir, "walk", "--no-spinner", "--region", "IN", "-p", "http://127.0.0.1:7890")

		got := ReadFile(t, ws.Model("PJZ110", "ota-version.txt"))
		want := "PJZ110_A # ColorOS: 14.0.0\nPJZ110_B  # ColorOS: ColorOS 14.0.1:Beta/X\n"
		if got != want {
			t.Errorf("ota-version.txt = %q, want %q", got, want)
		}

		link := filepath.Join(ws.LinksDir, "PJZ110", "ColorOS 14.0.1_Beta_X.txt")
		if got := ReadFile(t, link); got != "https://example.com/manifest.zip\n" {
			t.Errorf("link file = %q", got)
		}

		snapshot := ReadFile(t, ws.Model("PJZ110", "latest-update.txt"))
		for _, field := range []string{
			"OTA Version: PJZ110_B\n",
			"Android Version: Android 14\n",
			"Security Patch: 2024-02-05\n",
			"ROM Link: https://example.com/manifest.zip\n",
			"Changelog URL: https://example.com/changelog\n",
		} {
			if !strings.Contains(snapshot, field) {
				t.Errorf("Expected snapshot to contain %q, but it didn't.\nSnapshot: %s", field, snapshot)
			}
		}

		// no update for the other model
		if got := ReadFile(t, ws.Model("CPH2581", "ota-version.txt")); got != "CPH2581_A # ColorOS: 14.0.0\n" {
			t.Errorf("CPH2581 ota-version.txt changed: %q", got)
		}
		if FileExists(ws.Model("CPH2581", "latest-update.txt")) {
			t.Error("CPH2581 should have no snapshot")
		}

		args := ReadFile(t, filepath.Join(ws.Dir, "updater.log"))
		if !strings.Contains(args, "PJZ110_A --region IN --mode manual -p http://127.0.0.1:7890") {
			t.Errorf("unexpected updater arguments:\n%s", args)
		}
	})

	t.Run("rerun is idempotent", func(t *testing.T) {
		ws := NewWorkspace(t, map[string]string{"PJZ110": "PJZ110_A\n"})

		RunOtawalkExpectSuccess(t, binPath, ws.Dir, "walk", "--no-spinner")
		first := ReadFile(t, ws.Model("PJZ110", "ota-version.txt"))
		RunOtawalkExpectSuccess(t, binPath, ws.Dir, "walk", "--no-spinner")
		if second := ReadFile(t, ws.Model("PJZ110", "ota-version.txt")); second != first {
			t.Errorf("second run changed ota-version.txt:\n%s\nvs\n%s", first, second)
		}
	})

	t.Run("model failures are isolated", func(t *testing.T) {
		ws := NewWorkspace(t, map[string]string{
			"A_FAIL":   "FAIL_A\n",
			"B_SLOW":   "SLOW_A\n",
			"C_PJZ110": "PJZ110_A\n",
		})

		RunOtawalkExpectSuccess(t, binPath, ws.Dir, "walk", "--no-spinner", "--timeout", "200ms")

		if !strings.Contains(ReadFile(t, ws.Model("C_PJZ110", "ota-version.txt")), "PJZ110_B") {
			t.Error("model after a failing and a timed out model was not processed")
		}
	})

	t.Run("custom dirs and preference", func(t *testing.T) {
		ws := NewWorkspace(t, map[string]string{"PJZ110": "PJZ110_A\n"})

		RunOtawalkExpectSuccess(t, binPath, ws.Dir, "walk", ws.ModelsDir,
			"--links_dir", filepath.Join(ws.Dir, "roms"), "--prefer", "my_stock", "--no-spinner")

		link := filepath.Join(ws.Dir, "roms", "PJZ110", "ColorOS 14.0.1_Beta_X.txt")
		if got := ReadFile(t, link); got != "https://example.com/stock.zip\n" {
			t.Errorf("link file = %q", got)
		}
	})

	t.Run("missing updater aborts", func(t *testing.T) {
		ws := NewWorkspace(t, map[string]string{"PJZ110": "PJZ110_A\n"})

		_, _, exitCode := RunOtawalk(t, binPath, ws.Dir, "walk", "--updater", "./does-not-exist")
		if exitCode == 0 {
			t.Error("expected non-zero exit code when the updater is missing")
		}
		if FileExists(filepath.Join(ws.Dir, "updater.log")) {
			t.Error("no model should be queried")
		}
	})

	t.Run("missing models dir", func(t *testing.T) {
		ws := NewWorkspace(t, nil)

		_, stderr, exitCode := RunOtawalk(t, binPath, ws.Dir, "walk", "nope")
		if exitCode == 0 {
			t.Error("expected non-zero exit code when the models dir is missing")
		}
		if !strings.Contains(stderr, "does not exist") {
			t.Errorf("unexpected stderr: %s", stderr)
		}
	})
}

// TestHistoryCommand tests the 'otawalk history' command
func TestHistoryCommand(t *testing.T) {
	binPath := BuildOtawalk(t)

	ws := NewWorkspace(t, map[string]string{"PJZ110": "PJZ110_A # ColorOS: 14.0.0\n"})
	RunOtawalkExpectSuccess(t, binPath, ws.Dir, "walk", "--no-spinner", "--db", "otawalk.db")

	t.Run("files", func(t *testing.T) {
		stdout, _, exitCode := RunOtawalk(t, binPath, ws.Dir, "history", "--json")
		if exitCode != 0 {
			t.Fatalf("history failed with exit code %d", exitCode)
		}
		for _, field := range []string{`"model": "PJZ110"`, `"ota": "PJZ110_B"`} {
			if !strings.Contains(stdout, field) {
				t.Errorf("Expected JSON output to contain %q, but it didn't.\nOutput: %s", field, stdout)
			}
		}
	})

	t.Run("index", func(t *testing.T) {
		stdout, _, exitCode := RunOtawalk(t, binPath, ws.Dir, "history", "--db", "otawalk.db", "--json")
		if exitCode != 0 {
			t.Fatalf("history failed with exit code %d", exitCode)
		}
		for _, field := range []string{`"prev_ota": "PJZ110_A"`, `"ota_version": "PJZ110_B"`, `"rom_link": "https://example.com/manifest.zip"`} {
			if !strings.Contains(stdout, field) {
				t.Errorf("Expected JSON output to contain %q, but it didn't.\nOutput: %s", field, stdout)
			}
		}
	})
}

// TestConfigCommand tests the 'otawalk config' command
func TestConfigCommand(t *testing.T) {
	binPath := BuildOtawalk(t)

	ws := NewWorkspace(t, nil)
	stdout, _, exitCode := RunOtawalk(t, binPath, ws.Dir, "config")
	if exitCode != 0 {
		t.Fatalf("config failed with exit code %d", exitCode)
	}
	for _, field := range []string{"models-dir: models", "region: CN", "mode: manual", "prefer: my_manifest"} {
		if !strings.Contains(stdout, field) {
			t.Errorf("Expected config output to contain %q, but it didn't.\nOutput: %s", field, stdout)
		}
	}
}
