package middleware

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// DefaultCompressionLevel balances ratio and CPU for every codec.
const DefaultCompressionLevel = 5

// Compress negotiates response compression from Accept-Encoding. It
// supports br, zstd, gzip and deflate.
func Compress(level int) func(http.Handler) http.Handler {
	c := chimw.NewCompressor(level)
	c.SetEncoder("deflate", newZlibWriter)
	c.SetEncoder("gzip", newGzipWriter)
	c.SetEncoder("zstd", newZstdWriter)
	c.SetEncoder("br", newBrotliWriter)
	return c.Handler
}

func newGzipWriter(w io.Writer, level int) io.Writer {
	gw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil
	}
	return gw
}

func newZlibWriter(w io.Writer, level int) io.Writer {
	zw, err := zlib.NewWriterLevel(w, level)
	if err != nil {
		return nil
	}
	return zw
}

func newZstdWriter(w io.Writer, level int) io.Writer {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil
	}
	return zw
}

func newBrotliWriter(w io.Writer, level int) io.Writer {
	return brotli.NewWriterLevel(w, level)
}
