package ticket

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultRenderSize is the PNG edge length used for ticket pages.
const DefaultRenderSize = 512

// Render draws payload as a PNG QR code of size x size pixels.
func Render(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultRenderSize
	}
	png, err := goqrcode.Encode(payload, goqrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

// FrameDecoder turns a camera frame into the raw text of the QR code it
// contains. ok is false when no code could be read.
type FrameDecoder interface {
	DecodeImage(img image.Image) (text string, ok bool)
}

// ZXingDecoder reads QR codes with gozxing.
type ZXingDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewZXingDecoder creates a decoder that tries harder on noisy frames.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// DecodeImage implements FrameDecoder.
func (d *ZXingDecoder) DecodeImage(img image.Image) (string, bool) {
	if img == nil {
		return "", false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}

// DecodeFrame reads a QR code from raw RGBA pixels, four bytes per pixel in
// row-major order.
func DecodeFrame(dec FrameDecoder, pixels []byte, width, height int) (string, bool) {
	if width <= 0 || height <= 0 || len(pixels) < width*height*4 {
		return "", false
	}
	img := &image.RGBA{
		Pix:    pixels[:width*height*4],
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	return dec.DecodeImage(img)
}

// DecodeEncoded decodes an uploaded PNG or JPEG frame.
func DecodeEncoded(dec FrameDecoder, r io.Reader) (string, bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("failed to read frame: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("failed to decode frame image: %w", err)
	}
	text, ok := dec.DecodeImage(img)
	return text, ok, nil
}
