package db

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/otawalk/otawalk/internal/model"
	"github.com/pkg/errors"
)

// Memory is a database that keeps updates in memory and, if Path is set,
// persists them as a gob file on Close.
type Memory struct {
	Updates map[string][]*model.Update
	Path    string

	nextID uint
}

// NewInMemory creates a new in-memory database.
func NewInMemory(path string) (*Memory, error) {
	return &Memory{
		Updates: make(map[string][]*model.Update),
		Path:    path,
	}, nil
}

// Connect loads previously persisted updates, if any.
func (m *Memory) Connect() error {
	if m.Path == "" {
		return nil
	}
	f, err := os.Open(m.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to open %s", m.Path)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&m.Updates); err != nil {
		return errors.Wrapf(err, "failed to decode %s", m.Path)
	}
	for _, updates := range m.Updates {
		for _, u := range updates {
			if u.ID > m.nextID {
				m.nextID = u.ID
			}
		}
	}
	return nil
}

// Record stores a discovered update.
// Recording the same device/OTA pair twice updates the existing row.
func (m *Memory) Record(u *model.Update) error {
	now := time.Now()
	for i, existing := range m.Updates[u.Device] {
		if existing.OTAVersion == u.OTAVersion {
			u.ID = existing.ID
			u.CreatedAt = existing.CreatedAt
			u.UpdatedAt = now
			m.Updates[u.Device][i] = u
			return nil
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	m.Updates[u.Device] = append(m.Updates[u.Device], u)
	return nil
}

// List returns the recorded updates for device in discovery order.
func (m *Memory) List(device string) ([]*model.Update, error) {
	if device != "" {
		return append([]*model.Update{}, m.Updates[device]...), nil
	}
	devices := make([]string, 0, len(m.Updates))
	for d := range m.Updates {
		devices = append(devices, d)
	}
	sort.Strings(devices)
	var updates []*model.Update
	for _, d := range devices {
		updates = append(updates, m.Updates[d]...)
	}
	return updates, nil
}

// Close persists the updates to Path, if set. The previous file is only
// replaced once the new one is fully written.
func (m *Memory) Close() error {
	if m.Path == "" {
		return nil
	}
	f, err := os.CreateTemp(filepath.Dir(m.Path), filepath.Base(m.Path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", m.Path)
	}
	defer os.Remove(f.Name())

	if err := gob.NewEncoder(f).Encode(m.Updates); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to encode %s", m.Path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %s", m.Path)
	}
	if err := os.Rename(f.Name(), m.Path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", m.Path)
	}
	return nil
}
