package upload

import (
	"bytes"
	"errors"
	"image"
	stddraw "image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const AvatarSize = 512

// ProcessAvatar center-crops an image to a square, scales it to AvatarSize
// and re-encodes it as PNG.
func ProcessAvatar(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, webpErr := webp.Decode(bytes.NewReader(raw))
		if webpErr != nil {
			return nil, errors.New("unable to decode image")
		}
		img = decoded
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid image dimensions")
	}

	side := min(width, height)
	crop := image.NewRGBA(image.Rect(0, 0, side, side))
	origin := image.Point{X: bounds.Min.X + (width-side)/2, Y: bounds.Min.Y + (height-side)/2}
	stddraw.Draw(crop, crop.Bounds(), img, origin, stddraw.Src)

	scaled := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), crop, crop.Bounds(), xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, scaled); err != nil {
		return nil, errors.New("unable to encode image")
	}
	return out.Bytes(), nil
}

// PNGName swaps the extension of name for .png.
func PNGName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "avatar"
	}
	return base + ".png"
}
