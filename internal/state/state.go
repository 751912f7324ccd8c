// Package state reads and writes the per-model text files that record an OTA
// version chain.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/otawalk/otawalk/internal/ota"
	"github.com/pkg/errors"
)

const (
	// VersionFile holds the ordered OTA chain of a model.
	VersionFile = "ota-version.txt"
	// SnapshotFile holds the metadata of the most recently discovered update.
	SnapshotFile = "latest-update.txt"

	// LabelPrefix is written before the OS version in version file comments.
	LabelPrefix = "ColorOS: "

	timestampLayout = "2006-01-02 15:04:05"
)

var (
	// ErrNoVersionFile means the model folder has no ota-version.txt.
	ErrNoVersionFile = errors.New("missing " + VersionFile)
	// ErrEmptyChain means ota-version.txt has no non-blank lines.
	ErrEmptyChain = errors.New(VersionFile + " is empty")
)

var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\r", "_",
	"\n", "_",
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// SanitizeFilename replaces characters that are unsafe in filenames with '_'.
func SanitizeFilename(name string) string {
	return unsafeChars.Replace(name)
}

// Entry is one line of a version file.
type Entry struct {
	OTA   string `json:"ota"`
	Label string `json:"label,omitempty"`
}

func (e Entry) String() string {
	if len(e.Label) == 0 {
		return e.OTA
	}
	return fmt.Sprintf("%s  # %s", e.OTA, e.Label)
}

// ParseEntry splits a version file line into identifier and comment.
func ParseEntry(line string) Entry {
	ota, label, _ := strings.Cut(line, "#")
	return Entry{
		OTA:   strings.TrimSpace(ota),
		Label: strings.TrimSpace(label),
	}
}

// Model is the on-disk state of a single device model.
type Model struct {
	Name     string
	Dir      string
	LinksDir string
}

// Open returns the state for the model folder dir. Links are written to
// linksRoot/<model name>. It returns ErrNoVersionFile if the folder has no
// version file.
func Open(dir, linksRoot string) (*Model, error) {
	name := filepath.Base(dir)
	fi, err := os.Stat(filepath.Join(dir, VersionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoVersionFile
		}
		return nil, errors.Wrapf(err, "failed to stat %s", VersionFile)
	}
	if fi.IsDir() {
		return nil, ErrNoVersionFile
	}
	return &Model{
		Name:     name,
		Dir:      dir,
		LinksDir: filepath.Join(linksRoot, name),
	}, nil
}

// VersionPath is the path of the model's version file.
func (m *Model) VersionPath() string {
	return filepath.Join(m.Dir, VersionFile)
}

// SnapshotPath is the path of the model's latest update summary.
func (m *Model) SnapshotPath() string {
	return filepath.Join(m.Dir, SnapshotFile)
}

// LinkPath is the path of the link file for an OS version label.
func (m *Model) LinkPath(label string) string {
	return filepath.Join(m.LinksDir, SanitizeFilename(label)+".txt")
}

// History returns every non-blank line of the version file in order.
func (m *Model) History() ([]Entry, error) {
	data, err := os.ReadFile(m.VersionPath())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", m.VersionPath())
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		entries = append(entries, ParseEntry(line))
	}
	return entries, nil
}

// Current returns the last non-blank line of the version file.
func (m *Model) Current() (Entry, error) {
	entries, err := m.History()
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrEmptyChain
	}
	return entries[len(entries)-1], nil
}

// Append adds a newly discovered OTA version to the end of the version file.
func (m *Model) Append(info *ota.UpdateInfo) error {
	data, err := os.ReadFile(m.VersionPath())
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", m.VersionPath())
	}

	f, err := os.OpenFile(m.VersionPath(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", m.VersionPath())
	}
	defer f.Close()

	// an entry must stay on a single line
	label := lineBreaks.Replace(LabelPrefix + info.OSVersion)
	line := Entry{OTA: info.OTAVersion, Label: label}.String() + "\n"
	// keep the new entry on its own line if the file lacks a trailing newline
	if len(data) > 0 && data[len(data)-1] != '\n' {
		line = "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		return errors.Wrapf(err, "failed to append to %s", m.VersionPath())
	}
	return nil
}

// WriteLink writes the ROM download link for info and returns the file path.
func (m *Model) WriteLink(info *ota.UpdateInfo) (string, error) {
	if err := os.MkdirAll(m.LinksDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create links directory %s", m.LinksDir)
	}
	path := m.LinkPath(info.OSVersion)
	if err := os.WriteFile(path, []byte(info.ROMLink+"\n"), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write link file %s", path)
	}
	return path, nil
}

// WriteSnapshot overwrites the latest update summary with info.
func (m *Model) WriteSnapshot(info *ota.UpdateInfo, now time.Time) error {
	if err := os.WriteFile(m.SnapshotPath(), []byte(FormatSnapshot(info, now)), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", m.SnapshotPath())
	}
	return nil
}

// Snapshot returns the contents of the latest update summary, if any.
func (m *Model) Snapshot() (string, error) {
	data, err := os.ReadFile(m.SnapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "failed to read %s", m.SnapshotPath())
	}
	return string(data), nil
}

// FormatSnapshot renders info as the fixed-order latest update summary.
func FormatSnapshot(info *ota.UpdateInfo, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Local Update Time: %s\n", now.Format(timestampLayout))
	fmt.Fprintf(&sb, "OTA Version: %s\n", info.OTAVersion)
	fmt.Fprintf(&sb, "Version Name: %s\n", info.VersionName)
	fmt.Fprintf(&sb, "Android Version: %s\n", info.AndroidVersion)
	fmt.Fprintf(&sb, "ColorOS Version: %s\n", info.OSVersion)
	fmt.Fprintf(&sb, "Security Patch: %s\n", info.SecurityPatch)
	fmt.Fprintf(&sb, "Published Time: %s\n", info.PublishedTime)
	fmt.Fprintf(&sb, "ROM Link: %s\n", info.ROMLink)
	fmt.Fprintf(&sb, "Changelog URL: %s\n", info.DescriptionURL)
	return sb.String()
}
