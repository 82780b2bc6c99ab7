package backup

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ghostwipe/ghostwipe/internal/fault"
)

// Artifact describes one backup file on disk.
type Artifact struct {
	Path    string    `json:"path"`
	Date    string    `json:"date"`
	Base    string    `json:"base"`
	Slot    int       `json:"slot"` // 0 for the unnumbered backup
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

var artifactName = regexp.MustCompile(`^(\d{6})\.(.+?)(?:\.(\d+))?$`)

// List returns the backups of the store at storePath, newest day first and,
// within a day and base name, most recent first. A missing directory yields
// no backups.
func List(storePath string) ([]Artifact, error) {
	dir := filepath.Dir(storePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fault.IO("list backups", dir, err)
	}

	storeName := filepath.Base(storePath)
	var artifacts []Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := artifactName.FindStringSubmatch(e.Name())
		if m == nil || !strings.HasPrefix(m[2], storeName+".") {
			continue
		}
		slot := 0
		if m[3] != "" {
			slot, _ = strconv.Atoi(m[3])
		}
		info, err := e.Info()
		if err != nil {
			return nil, fault.IO("list backups", filepath.Join(dir, e.Name()), err)
		}
		artifacts = append(artifacts, Artifact{
			Path:    filepath.Join(dir, e.Name()),
			Date:    m[1],
			Base:    m[2],
			Slot:    slot,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		a, b := artifacts[i], artifacts[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.Base != b.Base {
			return a.Base < b.Base
		}
		return a.Slot < b.Slot
	})
	return artifacts, nil
}
