// Package model contains the OTA update model for the database.
package model

import (
	"github.com/otawalk/otawalk/internal/ota"
	"gorm.io/gorm"
)

// Update is one discovered step of a model's OTA chain.
type Update struct {
	gorm.Model            // adds ID, created_at etc.
	Device         string `gorm:"index;uniqueIndex:idx_device_ota" json:"device"`
	PrevOTA        string `json:"prev_ota,omitempty"`
	OTAVersion     string `gorm:"uniqueIndex:idx_device_ota" json:"ota_version"`
	VersionName    string `json:"version_name,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
	OSVersion      string `json:"os_version,omitempty"`
	SecurityPatch  string `json:"security_patch,omitempty"`
	PublishedTime  string `json:"published_time,omitempty"`
	DescriptionURL string `json:"description_url,omitempty"`
	ROMLink        string `json:"rom_link,omitempty"`
	Region         string `json:"region,omitempty"`
}

// NewUpdate builds an Update for device from a normalized response.
func NewUpdate(device, prev, region string, info *ota.UpdateInfo) *Update {
	return &Update{
		Device:         device,
		PrevOTA:        prev,
		OTAVersion:     info.OTAVersion,
		VersionName:    info.VersionName,
		AndroidVersion: info.AndroidVersion,
		OSVersion:      info.OSVersion,
		SecurityPatch:  info.SecurityPatch,
		PublishedTime:  info.PublishedTime,
		DescriptionURL: info.DescriptionURL,
		ROMLink:        info.ROMLink,
		Region:         region,
	}
}
