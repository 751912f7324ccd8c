package utils

import (
	"os"
	"path/filepath"
	"sort"
)

// SortFileNameAscend sorts directory entries by name
func SortFileNameAscend(entries []os.DirEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
}

// SubDirs returns the paths of the directories directly beneath root, sorted by name
func SubDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	SortFileNameAscend(entries)
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
			continue
		}
		// follow symlinked model folders
		if e.Type()&os.ModeSymlink != 0 {
			if fi, err := os.Stat(filepath.Join(root, e.Name())); err == nil && fi.IsDir() {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	return dirs, nil
}
