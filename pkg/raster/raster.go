// Package raster provides decoded raster images for the analysis pipeline.
//
// An Image is an immutable width × height pixel grid with a row-major RGBA
// buffer. Images are owned by the operation that decoded them and are never
// mutated in place: resizing and cropping produce new instances. This keeps
// concurrent pipeline stages free of shared mutable state.
//
// Supported input formats are PNG and JPEG. Unsupported formats and
// unreadable files are rejected with descriptive structured errors.
package raster

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	xdraw "golang.org/x/image/draw"

	"github.com/pixeljudge/pixeljudge/pkg/errors"
)

// Image is an immutable decoded raster image.
// The pixel buffer is row-major RGBA, 4 bytes per pixel.
type Image struct {
	width  int
	height int
	pix    []uint8
}

// Decode reads and decodes an image from a file path.
func Decode(path string) (*Image, error) {
	if err := errors.ValidateImagePath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "image file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "open image %s", path)
	}
	defer f.Close()

	img, err := DecodeReader(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "decode image %s", path)
	}
	return img, nil
}

// DecodeReader decodes an image from a reader.
func DecodeReader(r io.Reader) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unsupported or corrupt image data")
	}

	img := FromImage(src)
	if img.width <= 0 || img.height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "image has unreadable dimensions (%s)", format)
	}
	return img, nil
}

// FromImage copies a stdlib image into an immutable Image.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(nrgba, nrgba.Bounds(), src, bounds.Min, xdraw.Src)

	pix := make([]uint8, len(nrgba.Pix))
	copy(pix, nrgba.Pix)
	return &Image{width: w, height: h, pix: pix}
}

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.width }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.height }

// RGBA returns the pixel at (x, y). Coordinates outside the image return
// opaque black.
func (im *Image) RGBA(x, y int) (r, g, b, a uint8) {
	if x < 0 || y < 0 || x >= im.width || y >= im.height {
		return 0, 0, 0, 255
	}
	i := (y*im.width + x) * 4
	return im.pix[i], im.pix[i+1], im.pix[i+2], im.pix[i+3]
}

// Resize scales the image to the given dimensions and returns a new instance.
// The receiver is left untouched.
func (im *Image) Resize(width, height int) *Image {
	if width <= 0 || height <= 0 {
		return &Image{width: 0, height: 0}
	}
	if width == im.width && height == im.height {
		return im.clone()
	}

	src := im.toNRGBA()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	return &Image{width: width, height: height, pix: dst.Pix}
}

// Crop extracts the given region as a new instance. The region is clamped to
// the image bounds.
func (im *Image) Crop(x, y, width, height int) *Image {
	r := image.Rect(x, y, x+width, y+height).Intersect(image.Rect(0, 0, im.width, im.height))
	if r.Empty() {
		return &Image{width: 0, height: 0}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(dst, dst.Bounds(), im.toNRGBA(), r.Min, xdraw.Src)
	return &Image{width: r.Dx(), height: r.Dy(), pix: dst.Pix}
}

// Hash returns a content hash over the image dimensions and pixel buffer.
// Used to derive cache keys.
func (im *Image) Hash() string {
	h := sha256.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[0:4], uint32(im.width))
	binary.BigEndian.PutUint32(dims[4:8], uint32(im.height))
	h.Write(dims[:])
	h.Write(im.pix)
	return hex.EncodeToString(h.Sum(nil))
}

// Bounds returns the image bounds as a stdlib rectangle.
func (im *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.width, im.height)
}

// Std returns a stdlib copy of the image for interoperating with libraries
// that consume image.Image. The copy is independent of the receiver.
func (im *Image) Std() *image.NRGBA {
	return im.toNRGBA()
}

// String describes the image for log output.
func (im *Image) String() string {
	return fmt.Sprintf("raster.Image(%dx%d)", im.width, im.height)
}

func (im *Image) clone() *Image {
	pix := make([]uint8, len(im.pix))
	copy(pix, im.pix)
	return &Image{width: im.width, height: im.height, pix: pix}
}

func (im *Image) toNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, im.width, im.height))
	copy(dst.Pix, im.pix)
	return dst
}
