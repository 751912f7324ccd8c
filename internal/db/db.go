// Package db provides the update index interface and implementations.
package db

import (
	"fmt"

	"github.com/otawalk/otawalk/internal/model"
)

// Database is the interface that wraps the update index operations.
type Database interface {
	// Connect connects to the database and migrates the schema.
	Connect() error

	// Record stores a discovered update.
	// Recording the same device/OTA pair twice updates the existing row.
	Record(u *model.Update) error

	// List returns the recorded updates for device in discovery order.
	// An empty device lists every device.
	List(device string) ([]*model.Update, error)

	// Close closes the database.
	Close() error
}

// Config selects and configures a Database.
type Config struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Enabled reports whether an index database is configured.
func (c Config) Enabled() bool {
	return len(c.Driver) > 0
}

// Open creates the Database described by conf and connects to it.
func Open(conf Config) (Database, error) {
	var (
		d   Database
		err error
	)
	switch conf.Driver {
	case "memory":
		d, err = NewInMemory(conf.Path)
	case "sqlite":
		d, err = NewSqlite(conf.Path)
	case "postgres":
		d, err = NewPostgres(conf.Host, conf.Port, conf.User, conf.Password, conf.Name, conf.SSLMode)
	default:
		return nil, fmt.Errorf("unsupported database driver %q (supported: memory, sqlite, postgres)", conf.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := d.Connect(); err != nil {
		return nil, err
	}
	return d, nil
}
