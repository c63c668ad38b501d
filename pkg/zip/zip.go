// Package zip bundles history artifacts into a single download.
package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

// Entry is one file in an archive.
type Entry struct {
	Filename string
	Data     []byte
	Modified time.Time
}

// Write streams entries as a zip archive to w. Entries with an empty name
// are skipped; duplicate names are rejected.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.Filename == "" {
			continue
		}
		if _, dup := seen[entry.Filename]; dup {
			_ = zw.Close()
			return fmt.Errorf("zip: duplicate entry %q", entry.Filename)
		}
		seen[entry.Filename] = struct{}{}

		hdr := &zip.FileHeader{Name: entry.Filename, Method: zip.Deflate}
		if !entry.Modified.IsZero() {
			hdr.Modified = entry.Modified
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("zip: create %s: %w", entry.Filename, err)
		}
		if _, err := fw.Write(entry.Data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("zip: write %s: %w", entry.Filename, err)
		}
	}
	return zw.Close()
}
