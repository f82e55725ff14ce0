package http

import (
	"io/fs"
	"net/http"
)

// IndexPage is the dashboard entry point inside the frontend filesystem
const IndexPage = "index.html"

// ServeDashboard serves the dashboard page from frontend
func ServeDashboard(frontend fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := fs.ReadFile(frontend, IndexPage)
		if err != nil {
			http.Error(w, "Dashboard page not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		w.Write(page)
	}
}

// StaticFiles serves the remaining frontend assets under prefix
func StaticFiles(prefix string, frontend fs.FS) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.FS(frontend)))
}
