package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsage is the on-disk footprint of the lookup service, split by component.
type DiskUsage struct {
	Database int64            `json:"database"`
	WAL      int64            `json:"wal"`
	Indices  map[string]int64 `json:"indices,omitempty"`
	Total    int64            `json:"total"`
}

// MeasureDiskUsage sizes the SQLite database at dbPath, its -wal and -shm sidecars,
// and each index directory directly under indexRoot. An in-memory database and an
// empty indexRoot count as zero; missing files are skipped.
func MeasureDiskUsage(dbPath, indexRoot string) (*DiskUsage, error) {
	usage := &DiskUsage{}
	if dbPath != "" && dbPath != ":memory:" {
		n, err := fileSize(dbPath)
		if err != nil {
			return nil, err
		}
		usage.Database = n
		for _, suffix := range []string{"-wal", "-shm"} {
			n, err := fileSize(dbPath + suffix)
			if err != nil {
				return nil, err
			}
			usage.WAL += n
		}
	}
	usage.Total = usage.Database + usage.WAL

	if indexRoot == "" {
		return usage, nil
	}
	entries, err := os.ReadDir(indexRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return usage, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := dirSize(filepath.Join(indexRoot, e.Name()))
		if err != nil {
			return nil, err
		}
		if usage.Indices == nil {
			usage.Indices = make(map[string]int64)
		}
		usage.Indices[e.Name()] = n
		usage.Total += n
	}
	return usage, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.Size(), nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
