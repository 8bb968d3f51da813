package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"radiodx/internal/platform/config"
	perr "radiodx/internal/platform/errors"
)

//go:embed openapi.json
var baseDoc []byte

// docSource is swapped by tests
var docSource = func() []byte { return baseDoc }

// serveDocJSON serves the embedded OpenAPI document with the server list,
// the error envelope schema and the shared 400 and 500 replies filled in
func serveDocJSON(cfg config.Conf) http.HandlerFunc {
	suffix := cfg.MayString("DOCS_TITLE_SUFFIX", "")
	return func(w http.ResponseWriter, _ *http.Request) {
		var doc map[string]any
		if err := json.Unmarshal(docSource(), &doc); err != nil {
			http.Error(w, "openapi document is malformed", http.StatusInternalServerError)
			return
		}
		if _, ok := doc["servers"]; !ok {
			doc["servers"] = []any{map[string]any{"url": "/api/v1"}}
		}
		if info, ok := doc["info"].(map[string]any); ok && suffix != "" {
			info["title"] = info["title"].(string) + " " + suffix
		}
		schemas := child(child(doc, "components"), "schemas")
		if _, ok := schemas["ErrorResponse"]; !ok {
			schemas["ErrorResponse"] = errorSchema()
		}
		eachOperation(doc, func(responses map[string]any) {
			for status, reply := range sharedReplies {
				if _, ok := responses[status]; !ok {
					responses[status] = reply
				}
			}
		})

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(doc)
	}
}

// errorSchema mirrors the runtime envelope; code is one of the error code names
func errorSchema() map[string]any {
	codes := make([]any, 0, len(perr.Codes()))
	for _, c := range perr.Codes() {
		codes = append(codes, c.String())
	}
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer"},
			"status":      str,
			"code":        map[string]any{"type": "string", "enum": codes},
			"error":       str,
			"field":       str,
			"request_id":  str,
		},
		"required": []any{"status_code", "status", "code", "error"},
	}
}

var sharedReplies = map[string]any{
	"400": errorReply("Bad Request", map[string]any{
		"status_code": 400,
		"status":      "Bad Request",
		"code":        perr.ErrorCodeValidation.String(),
		"error":       "file_ids must contain at least 1 item",
		"field":       "file_ids",
		"request_id":  "host/abc-000001",
	}),
	"500": errorReply("Internal Server Error", map[string]any{
		"status_code": 500,
		"status":      "Internal Server Error",
		"code":        perr.ErrorCodeStorage.String(),
		"error":       "write raster",
		"request_id":  "host/abc-000002",
	}),
}

func errorReply(desc string, example map[string]any) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": example,
			},
		},
	}
}

// child returns m[key] as an object, creating it when absent
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

func eachOperation(doc map[string]any, fn func(responses map[string]any)) {
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range paths {
		item, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, op := range item {
			if op, ok := op.(map[string]any); ok {
				fn(child(op, "responses"))
			}
		}
	}
}
