package agents

import (
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
)

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
)

// TempIDPrefix marks document ids generated locally for in-flight uploads.
const TempIDPrefix = "temp-"

// Document is the metadata of one knowledge base file. ID is empty until
// the backend assigns one, or carries a TempIDPrefix id while uploading.
type Document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Size       string         `json:"size"`
	UploadDate string         `json:"uploadDate"`
	Status     DocumentStatus `json:"status"`
	Pages      int            `json:"pages,omitempty"`
}

// Temporary reports whether the document is a local upload placeholder.
func (d Document) Temporary() bool {
	return strings.HasPrefix(d.ID, TempIDPrefix)
}

// DocumentType derives the display type from a file name's extension.
func DocumentType(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(ext)
}

// Documents is an agent's document list with an explicit "not loaded" state,
// distinct from a loaded empty list. The zero value is not loaded.
type Documents struct {
	items  []Document
	loaded bool
}

func NotLoaded() Documents {
	return Documents{}
}

// Loaded returns a loaded list holding a copy of items. A nil slice yields a loaded empty list.
func Loaded(items []Document) Documents {
	return Documents{items: cloneDocs(items), loaded: true}
}

func (d Documents) IsLoaded() bool {
	return d.loaded
}

// Items returns a copy of the list. It is nil when the list is not loaded.
func (d Documents) Items() []Document {
	if !d.loaded {
		return nil
	}
	return cloneDocs(d.items)
}

func (d Documents) Len() int {
	return len(d.items)
}

// Find returns the document with the given id.
func (d Documents) Find(id string) (Document, bool) {
	i := slices.IndexFunc(d.items, func(doc Document) bool { return doc.ID == id })
	if i < 0 {
		return Document{}, false
	}
	return d.items[i], true
}

func (d Documents) MarshalJSON() ([]byte, error) {
	if !d.loaded {
		return []byte("null"), nil
	}
	return json.Marshal(d.items)
}

func (d *Documents) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = NotLoaded()
		return nil
	}

	var items []Document
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*d = Loaded(items)
	return nil
}

func cloneDocs(items []Document) []Document {
	out := make([]Document, len(items))
	copy(out, items)
	return out
}
