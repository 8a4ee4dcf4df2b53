// Package server exposes the pricing engine over HTTP for callers that would
// rather POST JSON than shell out to the CLI.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/contactkeval/options-lab/internal/logger"
	"github.com/contactkeval/options-lab/internal/pricing"
	"github.com/contactkeval/options-lab/internal/report"
)

// PriceRequest is the payload for POST /price.
type PriceRequest struct {
	Spot   float64 `json:"S" validate:"required,gt=0"`
	Strike float64 `json:"K" validate:"required,gt=0"`
	Rate   float64 `json:"r"`
	Yield  float64 `json:"q"`
	Years  float64 `json:"T" validate:"required,gt=0"`
	Type   string  `json:"type" validate:"required,oneof=call put"`
	Sigma  float64 `json:"sigma" validate:"required,gt=0"`
	Greeks bool    `json:"greeks"`
}

// ImpliedVolRequest is the payload for POST /implied-vol.
type ImpliedVolRequest struct {
	Spot        float64 `json:"S" validate:"required,gt=0"`
	Strike      float64 `json:"K" validate:"required,gt=0"`
	Rate        float64 `json:"r"`
	Yield       float64 `json:"q"`
	Years       float64 `json:"T" validate:"required,gt=0"`
	Type        string  `json:"type" validate:"required,oneof=call put"`
	MarketPrice float64 `json:"market_price" validate:"required,gt=0"`
	Greeks      bool    `json:"greeks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server holds the request validator shared by the handlers.
type Server struct {
	validate *validator.Validate
}

// New constructs a Server.
func New() *Server {
	return &Server{validate: validator.New()}
}

// Mux returns the HTTP mux with all routes registered.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/price", s.handlePrice)
	mux.HandleFunc("/implied-vol", s.handleImpliedVol)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if !s.decode(w, r, &req) {
		return
	}

	spec := pricing.ContractSpec{
		S: req.Spot, K: req.Strike, R: req.Rate, Q: req.Yield, T: req.Years,
		Type: pricing.OptionType(req.Type),
	}

	res, err := pricing.Price(spec, req.Sigma)
	if err != nil {
		writeError(w, err)
		return
	}

	rep := report.PriceReport{Type: spec.Type, Price: res.Price}
	if req.Greeks {
		g, err := pricing.Greeks(spec, req.Sigma)
		if err != nil {
			writeError(w, err)
			return
		}
		rep.Greeks = &g
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleImpliedVol(w http.ResponseWriter, r *http.Request) {
	var req ImpliedVolRequest
	if !s.decode(w, r, &req) {
		return
	}

	spec := pricing.ContractSpec{
		S: req.Spot, K: req.Strike, R: req.Rate, Q: req.Yield, T: req.Years,
		Type: pricing.OptionType(req.Type),
	}

	res, err := pricing.ImpliedVolatility(spec, req.MarketPrice)
	if err != nil {
		writeError(w, err)
		return
	}

	rep := report.ImpliedVolReport{
		Sigma:      res.Sigma,
		Converged:  res.Converged,
		Iterations: res.Iterations,
	}
	if req.Greeks {
		g, err := pricing.Greeks(spec, res.Sigma)
		if err != nil {
			writeError(w, err)
			return
		}
		rep.Greeks = &g
	}

	writeJSON(w, http.StatusOK, rep)
}

// decode unmarshals and validates the request body. Writes a 400/405 and
// returns false when the request cannot be served.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

// writeError maps the core error taxonomy onto HTTP statuses: bad input is
// 400, prices no volatility can reach are 422.
func writeError(w http.ResponseWriter, err error) {
	logger.Debugf("request failed: %v", err)

	var invalid *pricing.InvalidParameterError
	var unattainable *pricing.UnattainablePriceError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
	case errors.As(err, &unattainable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, pricing.ErrBracketingFailure):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
