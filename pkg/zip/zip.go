package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"
)

// Entry is one file inside an archive. Names may contain forward slashes to
// place the file in a folder.
type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Write streams entries into w as a zip archive.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, entry := range entries {
		header := &zip.FileHeader{
			Name:   entry.Name,
			Method: zip.Deflate,
		}
		if !entry.Modified.IsZero() {
			header.Modified = entry.Modified
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			zw.Close()
			return fmt.Errorf("zip: create %s: %w", entry.Name, err)
		}
		if _, err := fw.Write(entry.Data); err != nil {
			zw.Close()
			return fmt.Errorf("zip: write %s: %w", entry.Name, err)
		}
	}
	return zw.Close()
}

// Archive builds the archive in memory.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := Write(buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
