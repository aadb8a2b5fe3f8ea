package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/signalsfoundry/topology-engine/internal/logging"
	"github.com/signalsfoundry/topology-engine/model"
	"github.com/signalsfoundry/topology-engine/topology"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	facts := []model.Fact{
		model.Node{ID: "R1"},
		model.Node{ID: "R2"},
		model.Node{ID: "R3"},
		model.Interface{ID: "R1_I1", NodeID: "R1"},
		model.Interface{ID: "R2_I1", NodeID: "R2"},
		model.Interface{ID: "R2_I2", NodeID: "R2"},
		model.Interface{ID: "R3_I1", NodeID: "R3"},
		model.Link{A: "R1_I1", B: "R2_I1"},
		model.Link{A: "R2_I1", B: "R1_I1"},
		// One-sided on purpose so /v1/issues has a warning to report.
		model.Link{A: "R2_I2", B: "R3_I1"},
		model.AdminDistance{NodeID: "R1", Protocol: "static", Distance: 1},
		model.AdminDistance{NodeID: "R1", Protocol: "bgp", Distance: 20},
	}
	snap, err := topology.Load(context.Background(), facts)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return NewServer(StaticSource{Snap: snap}, nil, logging.Noop())
}

func get(t *testing.T, handler http.Handler, url string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, url, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: response is not JSON: %v (%s)", url, err, rr.Body.String())
	}
	return rr, body
}

func TestNeighborsEndpoint(t *testing.T) {
	handler := testServer(t).Handler()

	rr, body := get(t, handler, "/v1/nodes/R2/neighbors")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !reflect.DeepEqual(body["neighbors"], []any{"R1", "R3"}) {
		t.Fatalf("neighbors = %v, want [R1 R3]", body["neighbors"])
	}
}

func TestNeighborsUnknownNodeIs404(t *testing.T) {
	handler := testServer(t).Handler()

	rr, body := get(t, handler, "/v1/nodes/R9/neighbors")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if body["code"] != "not-found" {
		t.Fatalf("error code = %v, want not-found", body["code"])
	}
}

func TestPathEndpoint(t *testing.T) {
	handler := testServer(t).Handler()

	rr, body := get(t, handler, "/v1/path?src=R1&dst=R3")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !reflect.DeepEqual(body["path"], []any{"R1", "R2", "R3"}) {
		t.Fatalf("path = %v, want [R1 R2 R3]", body["path"])
	}

	rr, body = get(t, handler, "/v1/path?src=R1")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing dst: status = %d, want 400", rr.Code)
	}
	if body["code"] != "bad-request" {
		t.Fatalf("error code = %v, want bad-request", body["code"])
	}
}

func TestRoutesAndBestSourceEndpoints(t *testing.T) {
	handler := testServer(t).Handler()

	rr, body := get(t, handler, "/v1/nodes/R1/routes")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	distances, ok := body["distances"].(map[string]any)
	if !ok || distances["static"] != float64(1) || distances["bgp"] != float64(20) {
		t.Fatalf("distances = %v, want static=1 bgp=20", body["distances"])
	}

	rr, body = get(t, handler, "/v1/nodes/R1/best-source")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body["best_source"] != "static" {
		t.Fatalf("best_source = %v, want static", body["best_source"])
	}

	// R2 has no admin-distance facts at all.
	rr, body = get(t, handler, "/v1/nodes/R2/best-source")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if body["code"] != "no-route-source" {
		t.Fatalf("error code = %v, want no-route-source", body["code"])
	}
}

func TestIssuesEndpointSurfacesWarnings(t *testing.T) {
	handler := testServer(t).Handler()

	rr, body := get(t, handler, "/v1/issues")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	warnings, ok := body["warnings"].([]any)
	if !ok || len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", body["warnings"])
	}
	warning := warnings[0].(map[string]any)
	if warning["code"] != topology.CodeAsymmetricLink {
		t.Fatalf("warning code = %v, want %s", warning["code"], topology.CodeAsymmetricLink)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	handler := testServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("X-Request-Id = %q, want abc-123", got)
	}
}
