// Package swaggerkit serves the OpenAPI document and Swagger UI outside the versioned API
package swaggerkit

import (
	"net/http"

	"radiodx/internal/platform/config"
	phttp "radiodx/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Mount serves /api/docs when enabled; CORE_API_DOCS_TITLE_SUFFIX tags the title, e.g. "staging"
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON(config.New().Prefix("CORE_API_")))
	r.Handle("/api/docs/*", httpSwagger.Handler(httpSwagger.URL("/api/docs/doc.json")))
}
