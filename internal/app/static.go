package app

import (
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"sync"

	"github.com/sellapp/sellapp/web"
)

// staticTypes covers the asset extensions served under /static/ on hosts
// without a system mime.types file.
var staticTypes = map[string]string{
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".svg":  "image/svg+xml",
	".woff": "font/woff",
	".ico":  "image/x-icon",
}

var staticTypesOnce sync.Once

func registerStaticTypes(logger *slog.Logger) {
	staticTypesOnce.Do(func() {
		for ext, typ := range staticTypes {
			if mime.TypeByExtension(ext) != "" {
				continue
			}
			if err := mime.AddExtensionType(ext, typ); err != nil {
				logger.Warn("register mime type", slog.String("ext", ext), slog.Any("error", err))
			}
		}
	})
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler(logger *slog.Logger) (http.Handler, error) {
	registerStaticTypes(logger)
	sub, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub filesystem: %w", err)
	}
	return staticCacheHandler(http.StripPrefix("/static/", http.FileServer(http.FS(sub)))), nil
}

// staticCacheHandler caches static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
