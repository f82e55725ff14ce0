// Package snapshot prints the live dashboard page to PDF with headless Chrome.
//
// The page is loaded from a running server, so charts and insight cards come
// out exactly as a browser shows them:
//
//	err := snapshot.Render(ctx, snapshot.Options{
//		URL:       "http://localhost:8080/",
//		Output:    "data/exports/dashboard.pdf",
//		Landscape: true,
//	})
//
// Chrome or Chromium must be installed on the host.
package snapshot
