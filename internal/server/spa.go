package server

import (
	"net/http"
	"os"
	"path"

	"github.com/agentstation/roster/internal/server/response"
)

// spaHandler serves the compiled single-page application. Existing files
// under the dist directory are served as-is and every other GET or HEAD
// gets the bootstrap file so the client-side router can take over.
type spaHandler struct {
	root      http.Dir
	bootstrap string
}

func newSPAHandler(distDir, bootstrap string) *spaHandler {
	return &spaHandler{root: http.Dir(distDir), bootstrap: bootstrap}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		response.NotFound(w)
		return
	}
	if h.serveAsset(w, r) {
		return
	}

	f, err := os.Open(h.bootstrap)
	if err != nil {
		response.NotFound(w)
		return
	}
	defer func() { _ = f.Close() }()
	if !serveFile(w, r, f) {
		response.NotFound(w)
	}
}

// serveAsset serves the file named by the request path, or the index.html
// of the directory it names. It reports false when there is no such file.
func (h *spaHandler) serveAsset(w http.ResponseWriter, r *http.Request) bool {
	if h.root == "" {
		return false
	}
	name := path.Clean("/" + r.URL.Path)

	f, err := h.root.Open(name)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	if serveFile(w, r, f) {
		return true
	}

	index, err := h.root.Open(path.Join(name, "index.html"))
	if err != nil {
		return false
	}
	defer func() { _ = index.Close() }()
	return serveFile(w, r, index)
}

// serveFile writes f with conditional and range support. Directories are
// not served.
func serveFile(w http.ResponseWriter, r *http.Request, f http.File) bool {
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
