package letters

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

// WriteZip writes the documents into a ZIP archive, each under its own name.
func WriteZip(w io.Writer, docs []Document) error {
	archive := zip.NewWriter(w)
	modified := time.Now()
	for _, doc := range docs {
		header := &zip.FileHeader{
			Name:     doc.Name,
			Method:   zip.Deflate,
			Modified: modified,
		}
		entry, err := archive.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("unable to add %s to archive: %w", doc.Name, err)
		}
		if _, err := entry.Write(doc.Body); err != nil {
			return fmt.Errorf("unable to write %s to archive: %w", doc.Name, err)
		}
	}
	if err := archive.Close(); err != nil {
		return fmt.Errorf("unable to finalize archive: %w", err)
	}
	return nil
}
