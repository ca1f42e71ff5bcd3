package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/csconv"
	"github.com/mohammed-shakir/cs-wkt/internal/dictionary"
	"github.com/mohammed-shakir/cs-wkt/internal/geodesy"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/service"
	"github.com/mohammed-shakir/cs-wkt/internal/wkt"
)

const wgs84Geog = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]]`

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dict, err := dictionary.Default()
	if err != nil {
		t.Fatalf("dictionary: %v", err)
	}
	tr := service.New(namemap.NewRegistry(""), dict, nil, quietLogger(), service.Options{AllowSubstitution: true})
	r := chi.NewRouter()
	Mount(r, quietLogger(), tr)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, contentType, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, m
}

func TestImport_PlainTextAndJSON(t *testing.T) {
	srv := newServer(t)

	resp, m := post(t, srv.URL+"/v1/import", "text/plain", wgs84Geog)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%v", resp.StatusCode, m)
	}
	if m["flavor"] != "OGC" || m["kind"] != "GEOGCS" {
		t.Fatalf("unexpected body: %v", m)
	}

	body, _ := json.Marshal(wktRequest{WKT: wgs84Geog, Flavor: "ogc"})
	resp, m = post(t, srv.URL+"/v1/import", "application/json", string(body))
	if resp.StatusCode != http.StatusOK || m["flavor"] != "OGC" {
		t.Fatalf("json import status=%d body=%v", resp.StatusCode, m)
	}
}

func TestImport_ErrorStatuses(t *testing.T) {
	srv := newServer(t)
	cases := []struct {
		name, url, body string
		want            int
	}{
		{"malformed", "/v1/import", `PROJCS["X",GEOGCS[`, http.StatusBadRequest},
		{"empty", "/v1/import", "  ", http.StatusBadRequest},
		{"bad flavor", "/v1/import?flavor=klingon", wgs84Geog, http.StatusBadRequest},
		{"undetermined", "/v1/import",
			`GEOGCS["Foo",DATUM["Bar",SPHEROID["Baz",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Qux",0.0174532925199433]]`,
			http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, m := post(t, srv.URL+tc.url, "text/plain", tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("status=%d want %d body=%v", resp.StatusCode, tc.want, m)
			}
			if m["error"] == "" || m["code"] == "" {
				t.Fatalf("error body missing fields: %v", m)
			}
		})
	}
}

func TestExport(t *testing.T) {
	srv := newServer(t)

	resp, m := post(t, srv.URL+"/v1/export", "application/json",
		`{"kind":"ellipsoid","ellipsoid":{"key":"WGS84"},"flavor":"OGC"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%v", resp.StatusCode, m)
	}
	if m["wkt"] != `SPHEROID["WGS 84",6378137.0,298.257223563]` {
		t.Fatalf("wkt=%v", m["wkt"])
	}

	resp, _ = post(t, srv.URL+"/v1/export", "application/json", `{"bogus":1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status=%d", resp.StatusCode)
	}

	resp, m = post(t, srv.URL+"/v1/export", "application/json",
		`{"ellipsoid":{"key":"NOPE"}}`)
	if resp.StatusCode != http.StatusUnprocessableEntity || m["code"] != "missing_element" {
		t.Fatalf("missing ellipsoid status=%d body=%v", resp.StatusCode, m)
	}
}

func TestDetectParseProbe(t *testing.T) {
	srv := newServer(t)

	resp, m := post(t, srv.URL+"/v1/detect", "text/plain", wgs84Geog)
	if resp.StatusCode != http.StatusOK || m["flavor"] != "OGC" {
		t.Fatalf("detect status=%d body=%v", resp.StatusCode, m)
	}

	resp, m = post(t, srv.URL+"/v1/parse", "text/plain", wgs84Geog)
	if resp.StatusCode != http.StatusOK || m["type"] != "GEOGCS" {
		t.Fatalf("parse status=%d body=%v", resp.StatusCode, m)
	}

	resp, m = post(t, srv.URL+"/v1/probe?lon=10&lat=20", "text/plain", wgs84Geog)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("probe status=%d body=%v", resp.StatusCode, m)
	}
	pt := m["point"].(map[string]any)
	if pt["x"].(float64) != 10 || pt["y"].(float64) != 20 {
		t.Fatalf("point=%v", pt)
	}

	resp, _ = post(t, srv.URL+"/v1/probe", "text/plain", wgs84Geog)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("probe without point status=%d", resp.StatusCode)
	}
}

func TestFlavors(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/v1/flavors")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var m struct {
		Flavors     []string `json:"flavors"`
		Projections []string `json:"projections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(m.Flavors) != 11 || len(m.Projections) == 0 {
		t.Fatalf("flavors=%v projections=%d", m.Flavors, len(m.Projections))
	}
}

type failingTranslator struct{ err error }

func (f failingTranslator) Import(context.Context, string, model.Flavor) (*csconv.ImportResult, error) {
	return nil, f.err
}
func (f failingTranslator) Export(context.Context, service.ExportRequest) (*csconv.ExportResult, error) {
	return nil, f.err
}
func (f failingTranslator) Detect(context.Context, string, model.Flavor) (*service.DetectResult, error) {
	return nil, f.err
}
func (f failingTranslator) Parse(context.Context, string) (*service.TreeNode, error) {
	return nil, f.err
}
func (f failingTranslator) Probe(context.Context, string, model.Flavor, float64, float64) (*service.ProbeResult, error) {
	return nil, f.err
}

func TestUnavailableNameMap(t *testing.T) {
	r := chi.NewRouter()
	Mount(r, quietLogger(), failingTranslator{err: fmt.Errorf("%w: boom", namemap.ErrUnavailable)})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/import", strings.NewReader(wgs84Geog)))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rr.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&wkt.SyntaxError{Msg: "x"}, http.StatusBadRequest},
		{csconv.ErrUnsupportedUnit, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrap: %w", csconv.ErrUnsupportedParameterization), http.StatusUnprocessableEntity},
		{geodesy.ErrUnsupported, http.StatusUnprocessableEntity},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%v) = %d want %d", tc.err, got, tc.want)
		}
	}
}
