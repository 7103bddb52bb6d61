package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/char-projects/PokeAPI/internal/model"
)

// Storage keeps creature images on disk, one directory per owner so a user's
// files never mix with another's.
type Storage struct {
	root string
}

func New(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Storage{root: abs}, nil
}

func (s *Storage) SaveImage(owner string, id string, data []byte) error {
	dir := filepath.Join(s.root, ownerDir(owner))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create owner directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, id+".png"), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

func (s *Storage) ReadImage(owner string, id string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, ownerDir(owner), id+".png"))
	if os.IsNotExist(err) {
		return nil, model.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// Thumbnail decodes the stored image and downscales its longest side to
// maxDim, preserving aspect ratio. Images already small enough pass through.
func (s *Storage) Thumbnail(owner string, id string, maxDim int) ([]byte, error) {
	data, err := s.ReadImage(owner, id)
	if err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return data, nil
	}

	if width >= height {
		height = height * maxDim / width
		width = maxDim
	} else {
		width = width * maxDim / height
		height = maxDim
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ownerDir maps an identity (often an email) to a safe directory name.
// Names that are empty or all dots ("." and "..") would escape the root
// through filepath.Join and collapse to "_".
func ownerDir(owner string) string {
	var b strings.Builder
	allDots := true
	for _, r := range owner {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '@':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		if r != '.' {
			allDots = false
		}
	}
	if b.Len() == 0 || allDots {
		return "_"
	}
	return b.String()
}
