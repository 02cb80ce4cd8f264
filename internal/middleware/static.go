package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const placeholderAvatarSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200"><rect width="200" height="200" fill="#f0f0f0"/><circle cx="100" cy="75" r="35" fill="#999"/><path d="M40 170c0-33 27-55 60-55s60 22 60 55" fill="#999"/></svg>`

// StaticFileServer serves uploaded avatar images, falling back to a
// placeholder silhouette for missing files.
func StaticFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))

		if _, err := os.Stat(path); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=2592000")
			http.ServeFile(w, r, path)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(placeholderAvatarSVG))
	})
}
