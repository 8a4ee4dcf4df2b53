package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func doPost(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	New().Mux().ServeHTTP(w, req)
	return w
}

func TestPriceEndpoint(t *testing.T) {
	w := doPost(t, "/price", `{"S":100,"K":100,"r":0.05,"T":1,"type":"call","sigma":0.2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if math.Abs(resp.Price-10.4506) > 1e-3 {
		t.Fatalf("expected price ~10.4506, got %f", resp.Price)
	}
}

func TestPriceEndpointWithGreeks(t *testing.T) {
	w := doPost(t, "/price", `{"S":100,"K":100,"r":0.05,"q":0.02,"T":1,"type":"call","sigma":0.2,"greeks":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Price  float64 `json:"price"`
		Greeks *struct {
			Delta float64 `json:"delta"`
			Gamma float64 `json:"gamma"`
		} `json:"greeks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Greeks == nil {
		t.Fatalf("expected greeks in response: %s", w.Body.String())
	}
	if resp.Greeks.Delta <= 0 || resp.Greeks.Gamma <= 0 {
		t.Fatalf("implausible greeks: %+v", *resp.Greeks)
	}
}

func TestImpliedVolEndpoint(t *testing.T) {
	w := doPost(t, "/implied-vol", `{"S":100,"K":100,"r":0.05,"T":1,"type":"call","market_price":10.4506}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Sigma      float64 `json:"sigma"`
		Converged  bool    `json:"converged"`
		Iterations int     `json:"iterations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Converged || math.Abs(resp.Sigma-0.2) > 1e-3 {
		t.Fatalf("expected sigma ~0.2 converged, got %+v", resp)
	}
	if resp.Iterations <= 0 {
		t.Fatalf("expected positive iteration count, got %d", resp.Iterations)
	}
}

func TestValidationRejectsBadPayload(t *testing.T) {
	cases := []struct {
		name, path, body string
	}{
		{"missing sigma", "/price", `{"S":100,"K":100,"r":0.05,"T":1,"type":"call"}`},
		{"negative spot", "/price", `{"S":-1,"K":100,"r":0.05,"T":1,"type":"call","sigma":0.2}`},
		{"bad type", "/price", `{"S":100,"K":100,"r":0.05,"T":1,"type":"straddle","sigma":0.2}`},
		{"zero T", "/implied-vol", `{"S":100,"K":100,"r":0.05,"T":0,"type":"call","market_price":10}`},
		{"not json", "/price", `not json`},
	}

	for _, c := range cases {
		w := doPost(t, c.path, c.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", c.name, w.Code, w.Body.String())
		}
	}
}

func TestUnattainablePriceReturns422(t *testing.T) {
	// above the asset bound S for a call
	w := doPost(t, "/implied-vol", `{"S":100,"K":100,"r":0.05,"T":1,"type":"call","market_price":150}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "asset bound") {
		t.Fatalf("expected the violated bound named: %s", w.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/price", nil)
	w := httptest.NewRecorder()
	New().Mux().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	New().Mux().ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", w.Code, w.Body.String())
	}
}
