package db

import (
	"fmt"

	"github.com/otawalk/otawalk/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// index implements the gorm queries shared by every driver.
type index struct {
	db *gorm.DB
}

func (i *index) migrate() error {
	if err := i.db.AutoMigrate(&model.Update{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Record stores a discovered update.
// Recording the same device/OTA pair twice updates the existing row.
func (i *index) Record(u *model.Update) error {
	if result := i.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "device"}, {Name: "ota_version"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at",
			"prev_ota",
			"version_name",
			"android_version",
			"os_version",
			"security_patch",
			"published_time",
			"description_url",
			"rom_link",
			"region",
		}),
	}).Create(u); result.Error != nil {
		return fmt.Errorf("failed to record update %s: %w", u.OTAVersion, result.Error)
	}
	return nil
}

// List returns the recorded updates for device in discovery order.
func (i *index) List(device string) ([]*model.Update, error) {
	var updates []*model.Update
	tx := i.db.Order("device").Order("id")
	if device != "" {
		tx = tx.Where("device = ?", device)
	}
	if err := tx.Find(&updates).Error; err != nil {
		return nil, err
	}
	return updates, nil
}

// Close closes the database.
func (i *index) Close() error {
	if i.db == nil {
		return nil
	}
	db, err := i.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
