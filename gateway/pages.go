package gateway

import (
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

const indexPage = "index.html"

// StaticPages serves the console's built front end from fsys. Paths that are
// not files get index.html so client side routes load the app.
func StaticPages(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if info, err := fs.Stat(fsys, name); name == "" || err != nil || info.IsDir() {
			name = indexPage
		}
		if err := streamFile(w, fsys, name); err != nil {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		}
	})
}

func streamFile(w http.ResponseWriter, fsys fs.FS, fileName string) error {
	data, err := fs.ReadFile(fsys, fileName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
	if fileName == indexPage {
		w.Header().Set("Cache-Control", "no-cache")
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s content: %w", fileName, err)
	}
	return nil
}
