package output

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// ZipEntry is one file destined for a ZIP archive.
type ZipEntry struct {
	Name string
	Data []byte
}

// ZipFiles packages the entries, in order, into a single ZIP archive.
func ZipFiles(entries []ZipEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("adding %s to archive: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("writing %s to archive: %w", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}
