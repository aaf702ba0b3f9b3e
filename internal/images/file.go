package images

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File est un fichier local sélectionné, pas encore uploadé.
type File struct {
	Name     string
	Size     int64
	MimeType string
	Data     []byte
}

// NewFile construit un File en mémoire. Si le type MIME n'est pas fourni,
// il est détecté à partir du contenu.
func NewFile(name string, data []byte, mimeType string) *File {
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	return &File{
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Data:     data,
	}
}

// FileFromPath lit un fichier du disque. Le type MIME vient de l'extension,
// à défaut du contenu.
func FileFromPath(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lecture %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return NewFile(filepath.Base(path), data, mimeType), nil
}

func (f *File) Open() io.Reader { return bytes.NewReader(f.Data) }

// IsImage indique si le type MIME déclaré est une image.
func (f *File) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

func (f *File) sameAs(other *File) bool {
	return f.Name == other.Name && f.Size == other.Size
}
