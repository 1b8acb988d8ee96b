package uploads

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/JaimeStill/agent-console/internal/agents"
)

// File is one document queued for upload.
type File struct {
	Name string
	Data []byte
}

// ReadFile loads a local file for upload under its base name.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// placeholder is the processing record shown while the file is in flight.
func placeholder(id string, f File, now time.Time) agents.Document {
	doc := agents.Document{
		ID:         id,
		Name:       f.Name,
		Type:       agents.DocumentType(f.Name),
		Size:       units.HumanSize(float64(len(f.Data))),
		UploadDate: now.Format(time.DateOnly),
		Status:     agents.StatusProcessing,
	}
	if doc.Type == "PDF" {
		doc.Pages = pageCount(f.Data)
	}
	return doc
}

func pageCount(data []byte) int {
	count, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0
	}
	return count
}
