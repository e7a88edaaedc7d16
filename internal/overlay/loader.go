package overlay

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
)

// Loader resolves an asset name to a decoded image.
type Loader interface {
	Load(name string) (image.Image, error)
}

// FSLoader decodes images from a file system.
type FSLoader struct {
	FS fs.FS
}

// NewDirLoader loads assets from a directory on disk.
func NewDirLoader(dir string) *FSLoader {
	return &FSLoader{FS: os.DirFS(dir)}
}

// Load implements Loader.
func (l *FSLoader) Load(name string) (image.Image, error) {
	f, err := l.FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}
