package bundler

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// BundleSize sums the byte sizes of every artifact under dir. Reporting
// only; it has no behavioral effect on the build.
func BundleSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// FormatBundleSize renders a byte count for progress output.
func FormatBundleSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
