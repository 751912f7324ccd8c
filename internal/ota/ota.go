// Package ota normalizes the JSON printed by the updater into an UpdateInfo.
package ota

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/tidwall/gjson"
)

const (
	// Unknown is used for label fields the response did not carry.
	Unknown = "unknown"
	// None is used for URL fields the response did not carry.
	None = "none"

	// TimeLayout is the local date-time layout used for publish times.
	TimeLayout = "2006/01/02 15:04:05"

	millisecondThreshold = 1_000_000_000_000
)

var (
	// ErrParseFailure is returned when the updater output is empty or not JSON.
	ErrParseFailure = errors.New("failed to parse updater output")
	// ErrNoUpdate is returned when the response carries no OTA version.
	ErrNoUpdate = errors.New("no update available")
)

// UpdateInfo is the normalized result of one updater query.
type UpdateInfo struct {
	OTAVersion     string `json:"ota_version"`
	VersionName    string `json:"version_name"`
	AndroidVersion string `json:"android_version"`
	OSVersion      string `json:"os_version"`
	SecurityPatch  string `json:"security_patch"`
	PublishedTime  string `json:"published_time"`
	DescriptionURL string `json:"description_url"`
	ROMLink        string `json:"rom_link"`
}

func (u *UpdateInfo) String() string {
	return fmt.Sprintf("%s (%s)", u.OTAVersion, u.OSVersion)
}

// Policy controls which response fields are consulted and in what order.
type Policy struct {
	OTAFields           Candidates
	OSVersionFields     Candidates
	AndroidFields       Candidates
	SecurityPatchFields Candidates
	VersionNameFields   Candidates
	DescriptionFields   Candidates
	// PreferredComponent is the componentName whose manualUrl wins over
	// every other component.
	PreferredComponent string
	// Location is used to render publish times; nil means time.Local.
	Location *time.Location
}

// DefaultPolicy returns the field priorities used by the official app.
func DefaultPolicy() *Policy {
	return &Policy{
		OTAFields:           Candidates{"realOtaVersion", "otaVersion"},
		OSVersionFields:     Candidates{"realVersionName", "realOsVersion", "colorOSVersion", "osVersion"},
		AndroidFields:       Candidates{"realAndroidVersion", "androidVersion"},
		SecurityPatchFields: Candidates{"securityPatch", "securityPatchVendor"},
		VersionNameFields:   Candidates{"versionName"},
		DescriptionFields:   Candidates{"description.panelUrl"},
		PreferredComponent:  "my_manifest",
	}
}

// StripANSI removes terminal color and control sequences from s.
func StripANSI(s string) string {
	return stripansi.Strip(s)
}

// Normalize parses raw updater output into an UpdateInfo.
//
// Only two conditions are errors: output that is not JSON (ErrParseFailure)
// and a response without an OTA version (ErrNoUpdate). Every other missing
// field falls back to the Unknown or None sentinel.
func Normalize(raw string, p *Policy) (*UpdateInfo, error) {
	if p == nil {
		p = DefaultPolicy()
	}

	clean := strings.TrimSpace(StripANSI(raw))
	if len(clean) == 0 || !gjson.Valid(clean) {
		return nil, ErrParseFailure
	}

	body := gjson.Get(clean, "body")
	if !body.IsObject() {
		body = gjson.Parse("{}")
	}

	otaVersion := p.OTAFields.First(body)
	if len(otaVersion) == 0 {
		return nil, ErrNoUpdate
	}

	return &UpdateInfo{
		OTAVersion:     otaVersion,
		VersionName:    p.VersionNameFields.FirstOr(body, Unknown),
		AndroidVersion: p.AndroidFields.FirstOr(body, Unknown),
		OSVersion:      p.OSVersionFields.FirstOr(body, Unknown),
		SecurityPatch:  p.SecurityPatchFields.FirstOr(body, Unknown),
		PublishedTime:  FormatPublished(body.Get("publishedTime").Int(), p.Location),
		DescriptionURL: p.DescriptionFields.FirstOr(body, None),
		ROMLink:        romLink(body, p.PreferredComponent),
	}, nil
}

// romLink picks the manualUrl of the preferred component, or else the first
// component that has one.
func romLink(body gjson.Result, preferred string) string {
	link := None
	for _, comp := range body.Get("components").Array() {
		url := comp.Get("componentPackets.manualUrl").String()
		if len(url) == 0 {
			continue
		}
		if len(preferred) > 0 && comp.Get("componentName").String() == preferred {
			return url
		}
		if link == None {
			link = url
		}
	}
	return link
}

// FormatPublished renders a publish timestamp given in seconds or
// milliseconds since the epoch. Zero and negative values render as Unknown.
func FormatPublished(ts int64, loc *time.Location) string {
	if ts <= 0 {
		return Unknown
	}
	if ts > millisecondThreshold {
		ts /= 1000
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(ts, 0).In(loc).Format(TimeLayout)
}
