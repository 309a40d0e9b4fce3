package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the swagger handler", func() {
			Register(ctx, mux)

			convey.Convey("Then it should handle /openapi.yaml route", func() {
				req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "openapi: 3.0.3")
			})

			convey.Convey("And it should list operations at /api-docs", func() {
				req := httptest.NewRequest("GET", "/api-docs", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/jobs/{id}/export")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `href="/openapi.yaml"`)
			})

			convey.Convey("And it should reject other methods", func() {
				req := httptest.NewRequest("POST", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestOperations(t *testing.T) {
	convey.Convey("Given the embedded spec", t, func() {
		ops, err := Operations()
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then every API route is documented", func() {
			seen := make(map[string]string, len(ops))
			for _, op := range ops {
				seen[op.Method+" "+op.Path] = op.ID
			}
			convey.So(seen["POST /teams"], convey.ShouldEqual, "generateTeams")
			convey.So(seen["POST /jobs"], convey.ShouldEqual, "submitJob")
			convey.So(seen["GET /jobs/{id}"], convey.ShouldEqual, "getJob")
			convey.So(seen["DELETE /jobs/{id}"], convey.ShouldEqual, "cancelJob")
			convey.So(seen["GET /jobs/{id}/export"], convey.ShouldEqual, "exportJob")
			convey.So(seen["GET /stats"], convey.ShouldEqual, "getStats")
			convey.So(seen["GET /healthz"], convey.ShouldEqual, "health")
			convey.So(len(ops), convey.ShouldEqual, 7)
		})

		convey.Convey("Then operations are sorted by path", func() {
			convey.So(ops[0].Path, convey.ShouldEqual, "/healthz")
			convey.So(ops[1].Method+" "+ops[1].Path, convey.ShouldEqual, "POST /jobs")
			convey.So(ops[2].Method, convey.ShouldEqual, "GET")
			convey.So(ops[3].Method, convey.ShouldEqual, "DELETE")
		})
	})
}

func TestSwaggerHandlerWithNilMux(t *testing.T) {
	convey.Convey("Given a nil mux", t, func() {
		convey.Convey("Then registering should panic", func() {
			convey.So(func() { Register(context.Background(), nil) }, convey.ShouldPanic)
		})
	})
}
