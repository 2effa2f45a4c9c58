// Package zip bundles history assets into a single archive.
package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
	Modified time.Time
}

// WriteArchive streams assets into w as a zip archive. Duplicate filenames
// are suffixed with their position so no entry shadows another.
func WriteArchive(w io.Writer, assets []Asset) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]struct{}, len(assets))
	for i, asset := range assets {
		name := asset.Filename
		if _, dup := seen[name]; dup || name == "" {
			name = fmt.Sprintf("%03d-%s", i+1, asset.Filename)
		}
		seen[name] = struct{}{}

		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: asset.Modified}
		if hdr.Modified.IsZero() {
			hdr.Modified = time.Now()
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := fw.Write(asset.Data); err != nil {
			return fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	return zw.Close()
}
