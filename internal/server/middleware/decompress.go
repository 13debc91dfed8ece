package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/agentstation/roster/internal/server/response"
)

// SupportedEncodings lists the request Content-Encodings Decompress accepts.
const SupportedEncodings = "gzip, deflate, br, zstd"

// Decompress transparently decodes request bodies sent with a
// Content-Encoding. Unknown encodings are rejected with 415 and a body
// that fails to open with 400.
func Decompress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Content-Encoding")
		if header == "" || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}

		codings := strings.Split(header, ",")
		body := &decodedBody{Reader: r.Body, closers: []io.Closer{r.Body}}

		// Codings are listed in the order they were applied.
		for i := len(codings) - 1; i >= 0; i-- {
			coding := strings.ToLower(strings.TrimSpace(codings[i]))
			if err := body.wrap(coding); err != nil {
				_ = body.Close()
				if err == errUnsupportedCoding {
					w.Header().Set("Accept-Encoding", SupportedEncodings)
					response.Error(w, http.StatusUnsupportedMediaType,
						fmt.Errorf("unsupported content encoding %q", coding))
					return
				}
				response.Error(w, http.StatusBadRequest, fmt.Errorf("invalid %s request body: %w", coding, err))
				return
			}
		}

		r.Body = body
		r.Header.Del("Content-Encoding")
		r.Header.Del("Content-Length")
		r.ContentLength = -1

		next.ServeHTTP(w, r)
	})
}

var errUnsupportedCoding = fmt.Errorf("unsupported content coding")

// decodedBody stacks decoders over the original request body.
type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (b *decodedBody) wrap(coding string) error {
	switch coding {
	case "", "identity":
		return nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(b.Reader)
		if err != nil {
			return err
		}
		b.push(zr, zr)
	case "deflate":
		zr, err := zlib.NewReader(b.Reader)
		if err != nil {
			return err
		}
		b.push(zr, zr)
	case "br":
		b.push(brotli.NewReader(b.Reader), nil)
	case "zstd":
		zr, err := zstd.NewReader(b.Reader)
		if err != nil {
			return err
		}
		rc := zr.IOReadCloser()
		b.push(rc, rc)
	default:
		return errUnsupportedCoding
	}
	return nil
}

func (b *decodedBody) push(r io.Reader, c io.Closer) {
	b.Reader = r
	if c != nil {
		b.closers = append(b.closers, c)
	}
}

// Close closes every decoder, innermost last.
func (b *decodedBody) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
