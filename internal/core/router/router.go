// Package router exposes the translation API over HTTP.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/csconv"
	"github.com/mohammed-shakir/cs-wkt/internal/geodesy"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/service"
	"github.com/mohammed-shakir/cs-wkt/internal/wkt"
)

// Translator serves validated translation requests. service.Translator
// implements it.
type Translator interface {
	Import(ctx context.Context, text string, preferred model.Flavor) (*csconv.ImportResult, error)
	Export(ctx context.Context, req service.ExportRequest) (*csconv.ExportResult, error)
	Detect(ctx context.Context, text string, preferred model.Flavor) (*service.DetectResult, error)
	Parse(ctx context.Context, text string) (*service.TreeNode, error)
	Probe(ctx context.Context, text string, preferred model.Flavor, lon, lat float64) (*service.ProbeResult, error)
}

// Mount registers the /v1 translation routes on r.
func Mount(r chi.Router, logger *slog.Logger, tr Translator) {
	h := &handlers{log: logger, tr: tr}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/import", h.importWKT)
		r.Post("/export", h.export)
		r.Post("/detect", h.detect)
		r.Post("/parse", h.parse)
		r.Post("/probe", h.probe)
		r.Get("/flavors", h.flavors)
	})
}

type handlers struct {
	log *slog.Logger
	tr  Translator
}

// wktRequest is the JSON form of a text request. A text/plain body carries
// the WKT alone, with flavor, lon and lat in the query string.
type wktRequest struct {
	WKT    string   `json:"wkt"`
	Flavor string   `json:"flavor,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func readWKT(r *http.Request) (wktRequest, model.Flavor, error) {
	var req wktRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return req, model.FlavorNone, fmt.Errorf("read body: %w", err)
	}

	if isJSON(r) {
		if err := json.Unmarshal(body, &req); err != nil {
			return req, model.FlavorNone, badRequest{"invalid JSON body: " + err.Error()}
		}
	} else {
		req.WKT = string(body)
	}
	q := r.URL.Query()
	if req.Flavor == "" {
		req.Flavor = q.Get("flavor")
	}
	if req.Lon == nil && q.Get("lon") != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lon")), 64)
		if err != nil {
			return req, model.FlavorNone, badRequest{"invalid lon"}
		}
		req.Lon = &v
	}
	if req.Lat == nil && q.Get("lat") != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
		if err != nil {
			return req, model.FlavorNone, badRequest{"invalid lat"}
		}
		req.Lat = &v
	}

	if strings.TrimSpace(req.WKT) == "" {
		return req, model.FlavorNone, badRequest{"missing WKT text"}
	}
	f, err := model.ParseFlavor(req.Flavor)
	if err != nil {
		return req, model.FlavorNone, badRequest{err.Error()}
	}
	return req, f, nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func (h *handlers) importWKT(w http.ResponseWriter, r *http.Request) {
	req, f, err := readWKT(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.tr.Import(r.Context(), req.WKT, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	var req service.ExportRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.fail(w, r, err)
			return
		}
		h.fail(w, r, badRequest{"invalid JSON body: " + err.Error()})
		return
	}
	res, err := h.tr.Export(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) detect(w http.ResponseWriter, r *http.Request) {
	req, f, err := readWKT(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.tr.Detect(r.Context(), req.WKT, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) parse(w http.ResponseWriter, r *http.Request) {
	req, _, err := readWKT(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.tr.Parse(r.Context(), req.WKT)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) probe(w http.ResponseWriter, r *http.Request) {
	req, f, err := readWKT(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Lon == nil || req.Lat == nil {
		h.fail(w, r, badRequest{"lon and lat are required"})
		return
	}
	res, err := h.tr.Probe(r.Context(), req.WKT, f, *req.Lon, *req.Lat)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) flavors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"flavors":     model.AllFlavors(),
		"precedence":  model.Precedence,
		"projections": csconv.Projections(),
	})
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	} else {
		h.log.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// StatusFor maps an error to an HTTP status and a short code.
func StatusFor(err error) (int, string) {
	var (
		br  badRequest
		se  *wkt.SyntaxError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.As(err, &br), errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, csconv.ErrBadFormat), errors.As(err, &se):
		return http.StatusBadRequest, "bad_format"
	case errors.Is(err, csconv.ErrFlavorUndetermined):
		return http.StatusUnprocessableEntity, "flavor_undetermined"
	case errors.Is(err, csconv.ErrMissingRequiredElement):
		return http.StatusUnprocessableEntity, "missing_element"
	case errors.Is(err, csconv.ErrUnsupportedProjection),
		errors.Is(err, csconv.ErrUnsupportedParameterization),
		errors.Is(err, csconv.ErrUnsupportedUnit),
		errors.Is(err, geodesy.ErrUnsupported):
		return http.StatusUnprocessableEntity, "unsupported"
	case errors.Is(err, geodesy.ErrInvalid):
		return http.StatusUnprocessableEntity, "invalid_definition"
	case errors.Is(err, namemap.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
