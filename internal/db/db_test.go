package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/otawalk/otawalk/internal/model"
	"github.com/otawalk/otawalk/internal/ota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(device, prev, next, label string) *model.Update {
	return model.NewUpdate(device, prev, "CN", &ota.UpdateInfo{
		OTAVersion: next,
		OSVersion:  label,
		ROMLink:    "https://example.com/" + next + ".zip",
	})
}

func exerciseIndex(t *testing.T, d Database) {
	t.Helper()

	require.NoError(t, d.Record(update("PJZ110", "A", "B", "14.0.0")))
	require.NoError(t, d.Record(update("PJZ110", "B", "C", "14.0.1")))
	require.NoError(t, d.Record(update("CPH2581", "X", "Y", "14.0.0")))
	// re-discovering a step overwrites it
	again := update("PJZ110", "B", "C", "14.0.1")
	again.ROMLink = ota.None
	require.NoError(t, d.Record(again))

	got, err := d.List("PJZ110")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].OTAVersion)
	assert.Equal(t, "C", got[1].OTAVersion)
	assert.Equal(t, ota.None, got[1].ROMLink)

	all, err := d.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "CPH2581", all[0].Device)

	none, err := d.List("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSqlite(t *testing.T) {
	d, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "otawalk.db")})
	require.NoError(t, err)
	defer d.Close()

	exerciseIndex(t, d)
}

func TestMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otawalk.gob")

	d, err := Open(Config{Driver: "memory", Path: path})
	require.NoError(t, err)
	exerciseIndex(t, d)
	require.NoError(t, d.Close())

	// reopen from the persisted file
	d, err = Open(Config{Driver: "memory", Path: path})
	require.NoError(t, err)
	got, err := d.List("PJZ110")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	require.NoError(t, d.Record(update("PJZ110", "C", "D", "14.0.2")))
	got, err = d.List("PJZ110")
	require.NoError(t, err)
	assert.Greater(t, got[2].ID, got[1].ID)
}

func TestMemoryClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "otawalk.gob")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	d, err := NewInMemory(path)
	require.NoError(t, err)
	require.NoError(t, d.Record(update("PJZ110", "A", "B", "14.0.0")))
	require.NoError(t, d.Close())

	// only the index itself is left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "otawalk.gob", entries[0].Name())

	d, err = NewInMemory(path)
	require.NoError(t, err)
	require.NoError(t, d.Connect())
	got, err := d.List("PJZ110")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	d.Path = filepath.Join(dir, "missing", "otawalk.gob")
	assert.Error(t, d.Close())
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name string
		conf Config
	}{
		{name: "unknown driver", conf: Config{Driver: "mysql"}},
		{name: "sqlite without path", conf: Config{Driver: "sqlite"}},
		{name: "postgres without host", conf: Config{Driver: "postgres", Name: "otawalk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.conf); err == nil {
				t.Errorf("Open() expected error for %+v", tt.conf)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p, err := NewPostgres("localhost", "5432", "otawalk", "secret", "otawalk", "")
	require.NoError(t, err)
	assert.Equal(t, "host=localhost port=5432 user=otawalk dbname=otawalk sslmode=disable password=secret", p.DSN())
}
