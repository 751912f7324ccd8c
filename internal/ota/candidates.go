package ota

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Candidates is an ordered list of gjson paths. The first path that resolves
// to a non-empty value wins.
type Candidates []string

// First returns the first non-empty value, or "" if every candidate is empty.
// false, zero numbers and empty objects or arrays count as empty.
func (c Candidates) First(obj gjson.Result) string {
	for _, path := range c {
		v := obj.Get(path)
		if empty(v) {
			continue
		}
		if s := strings.TrimSpace(v.String()); len(s) > 0 {
			return s
		}
	}
	return ""
}

func empty(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return v.Num == 0
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) == 0
		}
		return len(v.Map()) == 0
	}
	return !v.Exists()
}

// FirstOr is First with a fallback.
func (c Candidates) FirstOr(obj gjson.Result, fallback string) string {
	if s := c.First(obj); len(s) > 0 {
		return s
	}
	return fallback
}
