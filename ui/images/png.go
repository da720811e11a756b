// Package images converts composited frames into the encodings Tk photos
// accept.
package images

import (
	"bytes"
	"image"
	"image/png"
	"sync"
)

var (
	bufPool = sync.Pool{New: func() any { return new(png.EncoderBuffer) }}
	encoder = png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: pool{}}
)

type pool struct{}

func (pool) Get() *png.EncoderBuffer  { return bufPool.Get().(*png.EncoderBuffer) }
func (pool) Put(b *png.EncoderBuffer) { bufPool.Put(b) }

// EncodePNG encodes img with the fastest compression level. Fullscreen
// frames are re-encoded on every selection change, so speed wins over size.
// Errors are ignored and yield nil.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
