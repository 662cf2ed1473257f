package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"accessimaps/docs"

	"github.com/go-chi/chi/v5"
)

func TestSwaggerDocCoversRoutes(t *testing.T) {
	app, _ := newTestApplication(t)

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("swagger doc is not valid JSON: %v", err)
	}

	undocumented := map[string]bool{
		"/swagger/*":  true,
		"/debug/vars": true,
	}

	router, ok := app.mount().(chi.Routes)
	if !ok {
		t.Fatal("mount should return a chi router")
	}

	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		path, found := strings.CutPrefix(route, "/api")
		if !found {
			return nil
		}
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}
		if undocumented[path] {
			return nil
		}
		if _, ok := doc.Paths[path][strings.ToLower(method)]; !ok {
			t.Errorf("%s %s has no swagger entry", method, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
