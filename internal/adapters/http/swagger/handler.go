package swagger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
	ErrParse = errors.New("openapi parse failed")
)

// Operation is one documented route.
type Operation struct {
	Method  string
	Path    string
	ID      string
	Summary string
}

var methodOrder = []string{"get", "post", "put", "patch", "delete"}

// Operations lists the routes documented in the embedded spec, sorted by
// path then method.
func Operations() ([]Operation, error) {
	doc, err := yaml.Parser().Unmarshal(OpenAPI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: no paths", ErrParse)
	}

	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	slices.Sort(keys)

	var ops []Operation
	for _, p := range keys {
		item, _ := paths[p].(map[string]any)
		for _, m := range methodOrder {
			op, ok := item[m].(map[string]any)
			if !ok {
				continue
			}
			id, _ := op["operationId"].(string)
			summary, _ := op["summary"].(string)
			ops = append(ops, Operation{Method: strings.ToUpper(m), Path: p, ID: id, Summary: summary})
		}
	}
	return ops, nil
}

// Register attaches the API docs routes to mux.
// Routes:
//
//	GET /api-docs      -> HTML index of the documented operations
//	GET /openapi.yaml  -> Embedded OpenAPI spec
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	index, err := renderIndex()
	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, _ *http.Request) {
		if err != nil {
			http.Error(w, fmt.Errorf("%w: %w", ErrServe, err).Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(index)
	})

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

func renderIndex() ([]byte, error) {
	ops, err := Operations()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, ops); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServe, err)
	}
	return buf.Bytes(), nil
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>fairteams API</title>
    <style>body{font-family:sans-serif;margin:2em}td{padding:.2em 1em}code{font-weight:bold}</style>
  </head>
  <body>
    <h1>fairteams API</h1>
    <p>Full specification: <a href="/openapi.yaml">openapi.yaml</a></p>
    <table>
{{- range .}}
      <tr><td><code>{{.Method}}</code></td><td>{{.Path}}</td><td>{{.Summary}}</td></tr>
{{- end}}
    </table>
  </body>
</html>`))
