package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageURLPrefix is where the server mounts the image directory.
const ImageURLPrefix = "/images/"

// MaxImageSize bounds an uploaded supply image.
const MaxImageSize = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type ImageStore interface {
	// Save stores the image under a fresh name and returns its public URL.
	Save(originalName string, r io.Reader) (string, error)
	// Delete removes the image behind url. Unknown urls are ignored.
	Delete(url string) error
}

// DiskImageStore keeps images as files in one directory.
type DiskImageStore struct {
	Dir string
}

func NewDiskImageStore(dir string) *DiskImageStore {
	return &DiskImageStore{Dir: dir}
}

func (d *DiskImageStore) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	name := uuid.NewString() + ext
	filePath := filepath.Join(d.Dir, name)
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxImageSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxImageSize {
		err = fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	if err != nil {
		_ = os.Remove(filePath)
		return "", fmt.Errorf("write image: %w", err)
	}
	return ImageURLPrefix + name, nil
}

func (d *DiskImageStore) Delete(url string) error {
	if !strings.HasPrefix(url, ImageURLPrefix) {
		return nil
	}
	name := path.Base(url)
	if name == "." || name == "/" || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(d.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}
