package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Script is one .sql file of the scripts directory
type Script struct {
	Name     string
	SQL      string
	Checksum string
}

// Load reads every *.sql file directly under dir in filename order.
// *.down.sql files are rollback halves and are not loaded.
func Load(fsys fs.FS, dir string) ([]Script, error) {
	if dir == "" {
		dir = "."
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, ".down.sql") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	scripts := make([]Script, 0, len(names))
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read script %s: %w", name, err)
		}
		sum := sha256.Sum256(raw)
		scripts = append(scripts, Script{
			Name:     name,
			SQL:      ExtractUp(string(raw)),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}
	return scripts, nil
}

// ExtractUp returns the SQL between the Up and Down markers,
// or the whole content when the file has no Up marker.
func ExtractUp(content string) string {
	upIdx := strings.Index(content, upMarker)
	if upIdx == -1 {
		return content
	}
	body := content[upIdx+len(upMarker):]
	if downIdx := strings.Index(body, downMarker); downIdx != -1 {
		body = body[:downIdx]
	}
	return body
}

// After drops the scripts whose name sorts before from
func After(scripts []Script, from string) []Script {
	if from == "" {
		return scripts
	}
	i := sort.Search(len(scripts), func(i int) bool { return scripts[i].Name >= from })
	return scripts[i:]
}
