package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
)

// SysHealth is a snapshot of the process and of what it keeps on disk.
type SysHealth struct {
	AllocMB    uint64
	SysMB      uint64
	NumGC      uint32
	Goroutines int

	DataDiskSize  string
	MediaDiskSize string
	MediaFiles    int
}

// CollectHealth reads runtime memory stats and sizes the data and media
// directories. Missing directories count as empty. The media directory may
// live inside the data directory, in which case its bytes count twice.
func CollectHealth(dataDir, mediaDir string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	dataBytes, _ := dirUsage(dataDir)
	mediaBytes, mediaFiles := dirUsage(mediaDir)

	return SysHealth{
		AllocMB:       m.Alloc >> 20,
		SysMB:         m.Sys >> 20,
		NumGC:         m.NumGC,
		Goroutines:    runtime.NumGoroutine(),
		DataDiskSize:  formatBytes(dataBytes),
		MediaDiskSize: formatBytes(mediaBytes),
		MediaFiles:    mediaFiles,
	}
}

func dirUsage(root string) (size int64, files int) {
	if root == "" {
		return 0, 0
	}
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
