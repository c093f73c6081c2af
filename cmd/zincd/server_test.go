package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"zinc/pkg/config"
)

func newTestServer() *Server {
	cfg := &config.Config{}
	cfg.Storage.TreeDepth = 4
	return NewServer(cfg)
}

func TestHandleCheckAcceptsValidSource(t *testing.T) {
	srv := newTestServer()
	body := `{"source":"fn main() -> field {\n    2 + 3\n}\n"}`
	req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res checkResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok=true, got %+v", res)
	}
}

func TestHandleCheckReportsDiagnostic(t *testing.T) {
	srv := newTestServer()
	body := `{"source":"fn helper() -> u8 { 1 }\n"}`
	req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	var res checkResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.OK {
		t.Fatalf("expected ok=false for a module with no main function")
	}
}

func TestHandleRunReturnsOutputs(t *testing.T) {
	srv := newTestServer()
	body := `{"source":"fn main() -> field {\n    2 + 3\n}\n","witness":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res runResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.Outputs) != 1 || res.Outputs[0] != "5" {
		t.Fatalf("expected [5], got %v", res.Outputs)
	}
}

func TestHandleRunRejectsMalformedInput(t *testing.T) {
	srv := newTestServer()
	body := `{"source":"fn main(x: field) -> field { x }\n","inputs":["not-a-number"],"witness":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleRunReportsCompileError(t *testing.T) {
	srv := newTestServer()
	body := `{"source":"fn main( {\n"}`
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	var res runResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Error == "" {
		t.Fatalf("expected a compile error to be reported")
	}
}
