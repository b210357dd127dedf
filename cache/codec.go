package cache

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// DefaultCompressionLevel is the zlib level applied when no codec is
// configured. Pages are compressed once and decompressed on every cache
// hit, so the level leans toward ratio.
const DefaultCompressionLevel = 8

// Codec converts page content to and from its stored representation.
type Codec interface {
	// Encode transforms raw content into its stored form.
	Encode(data []byte) ([]byte, error)

	// Decode reverses Encode. Decode(Encode(x)) must equal x.
	Decode(data []byte) ([]byte, error)
}

// ZlibCodec compresses content with zlib. The zero value uses
// DefaultCompressionLevel.
type ZlibCodec struct {
	// Level is the zlib compression level (zlib.BestSpeed through
	// zlib.BestCompression). Zero means DefaultCompressionLevel.
	Level int
}

// Encode compresses data with zlib.
func (z ZlibCodec) Encode(data []byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = DefaultCompressionLevel
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to compress content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush compressed content: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode decompresses zlib data.
func (z ZlibCodec) Decode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed content: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress content: %w", err)
	}

	return out, nil
}
