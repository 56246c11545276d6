package meshpbr

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes any registered format (PNG, JPEG, GIF, BMP, TIFF, WebP)
// into tightly packed RGBA8 with alpha forced to opaque.
func DecodeImage(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	for i := 3; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i] = 0xff
	}
	return rgba, nil
}

// MipLevelCount is floor(log2(max(w, h))) + 1.
func MipLevelCount(width, height int) int {
	size := max(width, height)
	levels := 1
	for size > 1 {
		size >>= 1
		levels++
	}
	return levels
}

// BuildMipChain returns img followed by successively halved bilinear reductions
// down to 1x1.
func BuildMipChain(img *image.RGBA) []TextureLevel {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	count := MipLevelCount(w, h)
	levels := make([]TextureLevel, 0, count)
	levels = append(levels, TextureLevel{Width: uint32(w), Height: uint32(h), Texels: img.Pix})

	prev := img
	for i := 1; i < count; i++ {
		w, h = max(w/2, 1), max(h/2, 1)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		levels = append(levels, TextureLevel{Width: uint32(w), Height: uint32(h), Texels: next.Pix})
		prev = next
	}
	return levels
}

// LoadTextureFile decodes an image file and registers it with a full mip chain.
// sRGB selects an sRGB texture format (color data) over a linear one.
func (server *AssetServer) LoadTextureFile(path string, sRGB bool) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return server.CreateTextureFromImage(filepath.Base(path), img, sRGB), nil
}

func (server *AssetServer) CreateTextureFromImage(name string, img *image.RGBA, sRGB bool) *Texture {
	format := TextureFormatRGBA8Unorm
	if sRGB {
		format = TextureFormatRGBA8UnormSrgb
	}
	return server.CreateTexture(name, BuildMipChain(img), format)
}

// SolidImage is a w x h image filled with c.
func SolidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}
