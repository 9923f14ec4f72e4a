package docs

import (
	"encoding/json"
	"testing"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	if SwaggerInfo == nil {
		t.Fatal("swagger info not initialized")
	}
	if SwaggerInfo.Title != "ChainSight API" {
		t.Fatalf("unexpected title %q", SwaggerInfo.Title)
	}
}

func TestSwaggerDocListsRoutes(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()

	var parsed map[string]any
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("rendered doc is not valid JSON: %v", err)
	}
	paths, ok := parsed["paths"].(map[string]any)
	if !ok {
		t.Fatal("rendered doc has no paths object")
	}
	for _, route := range []string{
		"/health",
		"/api/history",
		"/api/strategy",
		"/api/forecast",
		"/api/metrics/{metric}",
	} {
		if _, found := paths[route]; !found {
			t.Errorf("route %s missing from swagger doc", route)
		}
	}
}
