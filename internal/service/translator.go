// Package service runs WKT translations for the HTTP API and the CLI. It adds
// caching, metrics and logging around the csconv engine.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/cs-wkt/internal/cache"
	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/core/observability"
	"github.com/mohammed-shakir/cs-wkt/internal/csconv"
	"github.com/mohammed-shakir/cs-wkt/internal/dictionary"
	"github.com/mohammed-shakir/cs-wkt/internal/logger"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/wkt"
)

const (
	DirImport = "import"
	DirExport = "export"
)

type Options struct {
	// DefaultFlavor is used by Export when a request names no flavor.
	DefaultFlavor     model.Flavor
	AllowSubstitution bool
	// TTL returns the shared-tier TTL per direction. nil means 10 minutes.
	TTL func(direction string) time.Duration
}

type Translator struct {
	names *namemap.Registry
	dict  dictionary.Source
	cache *cache.Tiered
	log   *slog.Logger
	opts  Options
}

// New builds a Translator. c may be nil to disable caching.
func New(names *namemap.Registry, dict dictionary.Source, c *cache.Tiered, logger *slog.Logger, opts Options) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.DefaultFlavor.Valid() {
		opts.DefaultFlavor = model.FlavorOGC
	}
	return &Translator{names: names, dict: dict, cache: c, log: logger, opts: opts}
}

func (t *Translator) converter() (*csconv.Converter, error) {
	m, err := t.names.Get()
	if err != nil {
		return nil, err
	}
	observability.SetNameMapEntries(m.Len())
	return csconv.New(m, t.dict), nil
}

// Ready reports whether the name map can be loaded.
func (t *Translator) Ready(context.Context) error {
	_, err := t.names.Get()
	return err
}

func (t *Translator) ttl(dir string) time.Duration {
	if t.opts.TTL == nil {
		return 10 * time.Minute
	}
	return t.opts.TTL(dir)
}

// cached returns a decoded cache entry for key, if any.
func (t *Translator) cached(ctx context.Context, key string, out any) bool {
	if t.cache == nil {
		return false
	}
	b, tier, ok := t.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		t.log.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "err", err)
		return false
	}
	t.log.DebugContext(logger.WithCacheTier(ctx, tier), "translation cache hit")
	return true
}

func (t *Translator) store(ctx context.Context, dir, key string, v any) {
	if t.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.log.WarnContext(ctx, "cache encode failed", "err", err)
		return
	}
	t.cache.Put(ctx, key, b, t.ttl(dir))
}

func (t *Translator) cacheKey(dir string, flavor model.Flavor, opts, payload string) string {
	if t.cache == nil {
		return ""
	}
	f := "auto"
	if flavor.Valid() {
		f = flavor.String()
	}
	return t.cache.Key(dir, f, opts, payload)
}

func (t *Translator) logWarnings(ctx context.Context, dir string, warnings []string) {
	for _, w := range warnings {
		t.log.DebugContext(ctx, "translation warning", "direction", dir, "warning", w)
	}
}

// Import converts WKT text into definition records. preferred may be
// FlavorNone to require detection.
func (t *Translator) Import(ctx context.Context, text string, preferred model.Flavor) (*csconv.ImportResult, error) {
	ctx = logger.WithDirection(ctx, DirImport)
	key := t.cacheKey(DirImport, preferred, "-", text)
	var hit csconv.ImportResult
	if key != "" && t.cached(ctx, key, &hit) {
		return &hit, nil
	}

	conv, err := t.converter()
	if err != nil {
		observability.ObserveTranslation(DirImport, flavorLabel(preferred), Outcome(err), 0)
		return nil, err
	}
	start := time.Now()
	res, err := conv.Import(text, preferred)
	if err != nil {
		observability.ObserveTranslation(DirImport, flavorLabel(preferred), Outcome(err), 0)
		t.log.DebugContext(ctx, "import failed", "flavor", flavorLabel(preferred), "err", err)
		return nil, err
	}
	observability.ObserveTranslation(DirImport, res.Flavor.String(), "ok", time.Since(start).Seconds())
	t.logWarnings(logger.WithFlavor(ctx, res.Flavor.String()), DirImport, res.Warnings)
	if key != "" {
		t.store(ctx, DirImport, key, res)
	}
	return res, nil
}

// ExportRequest names what to export. Kind is one of coordsys, geogcs,
// datum or ellipsoid; when empty it is inferred from the populated fields.
type ExportRequest struct {
	Kind      string                `json:"kind,omitempty"`
	CoordSys  *model.CoordSystemDef `json:"coordsys,omitempty"`
	Datum     *model.DatumDef       `json:"datum,omitempty"`
	Ellipsoid *model.EllipsoidDef   `json:"ellipsoid,omitempty"`

	Flavor              model.Flavor `json:"flavor"`
	DisableSubstitution bool         `json:"disable_substitution,omitempty"`
	Authority           bool         `json:"authority,omitempty"`
}

const (
	KindCoordSys  = "coordsys"
	KindGeogCS    = "geogcs"
	KindDatum     = "datum"
	KindEllipsoid = "ellipsoid"
)

// ErrInvalidRequest reports an export request with nothing to export.
var ErrInvalidRequest = errors.New("service: invalid request")

func (r ExportRequest) kind() string {
	if r.Kind != "" {
		return r.Kind
	}
	switch {
	case r.CoordSys != nil:
		return KindCoordSys
	case r.Datum != nil:
		return KindDatum
	case r.Ellipsoid != nil:
		return KindEllipsoid
	}
	return ""
}

func (t *Translator) exportOptions(r ExportRequest) csconv.ExportOptions {
	f := r.Flavor
	if !f.Valid() {
		f = t.opts.DefaultFlavor
	}
	return csconv.ExportOptions{
		Flavor:              f,
		DisableSubstitution: r.DisableSubstitution || !t.opts.AllowSubstitution,
		Authority:           r.Authority,
	}
}

// Export writes definition records as WKT.
func (t *Translator) Export(ctx context.Context, req ExportRequest) (*csconv.ExportResult, error) {
	req.Kind = req.kind()
	opts := t.exportOptions(req)
	ctx = logger.WithFlavor(logger.WithDirection(ctx, DirExport), opts.Flavor.String())

	var key string
	if t.cache != nil {
		payload, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		key = t.cacheKey(DirExport, opts.Flavor, exportOptsKey(req.Kind, opts), string(payload))
	}
	var hit csconv.ExportResult
	if key != "" && t.cached(ctx, key, &hit) {
		return &hit, nil
	}

	conv, err := t.converter()
	if err != nil {
		observability.ObserveTranslation(DirExport, opts.Flavor.String(), Outcome(err), 0)
		return nil, err
	}
	start := time.Now()
	res, err := exportWith(conv, req, opts)
	if err != nil {
		observability.ObserveTranslation(DirExport, opts.Flavor.String(), Outcome(err), 0)
		t.log.DebugContext(ctx, "export failed", "kind", req.Kind, "flavor", opts.Flavor.String(), "err", err)
		return nil, err
	}
	observability.ObserveTranslation(DirExport, res.Flavor.String(), "ok", time.Since(start).Seconds())
	if res.Substituted {
		observability.IncFlavorSubstitution(res.Requested.String())
		t.log.InfoContext(ctx, "export flavor substituted",
			"requested", res.Requested.String(), "written", res.Flavor.String())
	}
	t.logWarnings(ctx, DirExport, res.Warnings)
	if key != "" {
		t.store(ctx, DirExport, key, res)
	}
	return res, nil
}

func exportWith(conv *csconv.Converter, req ExportRequest, opts csconv.ExportOptions) (*csconv.ExportResult, error) {
	var (
		dt model.DatumDef
		el model.EllipsoidDef
	)
	if req.Datum != nil {
		dt = *req.Datum
	}
	if req.Ellipsoid != nil {
		el = *req.Ellipsoid
	}
	switch req.Kind {
	case KindCoordSys:
		if req.CoordSys == nil {
			return nil, fmt.Errorf("%w: coordsys is required", ErrInvalidRequest)
		}
		return conv.ExportCoordSys(*req.CoordSys, dt, el, opts)
	case KindGeogCS:
		if req.Datum == nil {
			return nil, fmt.Errorf("%w: datum is required for geogcs", ErrInvalidRequest)
		}
		return conv.ExportGeogCS(dt, el, opts)
	case KindDatum:
		if req.Datum == nil {
			return nil, fmt.Errorf("%w: datum is required", ErrInvalidRequest)
		}
		return conv.ExportDatum(dt, el, opts)
	case KindEllipsoid:
		if req.Ellipsoid == nil {
			return nil, fmt.Errorf("%w: ellipsoid is required", ErrInvalidRequest)
		}
		return conv.ExportEllipsoid(el, opts)
	case "":
		return nil, fmt.Errorf("%w: nothing to export", ErrInvalidRequest)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, req.Kind)
}

func exportOptsKey(kind string, o csconv.ExportOptions) string {
	return fmt.Sprintf("k=%s,sub=%t,auth=%t", kind, !o.DisableSubstitution, o.Authority)
}

// DetectResult reports the flavor chosen for a text and every flavor whose
// names are consistent with it.
type DetectResult struct {
	Flavor     model.Flavor   `json:"flavor"`
	Candidates []model.Flavor `json:"candidates"`
	Kind       string         `json:"kind"`
	Name       string         `json:"name,omitempty"`
}

func (t *Translator) Detect(ctx context.Context, text string, preferred model.Flavor) (*DetectResult, error) {
	ctx = logger.WithDirection(ctx, "detect")
	tree, err := wkt.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", csconv.ErrBadFormat, err)
	}
	conv, err := t.converter()
	if err != nil {
		return nil, err
	}
	root := tree.Root()
	set := conv.FlavorBitmap(root)
	f := conv.DetectFlavor(root, preferred)
	observability.IncFlavorDetection(flavorLabel(f))
	t.log.DebugContext(ctx, "flavor detected", "flavor", flavorLabel(f), "candidates", set.String())
	return &DetectResult{
		Flavor:     f,
		Candidates: set.Flavors(),
		Kind:       root.Type().String(),
		Name:       root.Name(),
	}, nil
}

// TreeNode is a JSON view of one parsed WKT element.
type TreeNode struct {
	Keyword  string     `json:"keyword"`
	Type     string     `json:"type"`
	Name     string     `json:"name,omitempty"`
	Values   []string   `json:"values,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// Parse returns the element tree of text without interpreting it.
func (t *Translator) Parse(_ context.Context, text string) (*TreeNode, error) {
	tree, err := wkt.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", csconv.ErrBadFormat, err)
	}
	n := dump(tree.Root())
	return &n, nil
}

func dump(n wkt.Node) TreeNode {
	out := TreeNode{Keyword: n.Keyword(), Type: n.Type().String()}
	if n.HasName() {
		out.Name = n.Name()
	}
	for i := 0; i < n.FieldCount(); i++ {
		if s := n.Text(i); s != "" {
			out.Values = append(out.Values, s)
		}
	}
	for _, c := range n.Children() {
		out.Children = append(out.Children, dump(c))
	}
	return out
}

func flavorLabel(f model.Flavor) string {
	if f.Valid() {
		return f.String()
	}
	return "none"
}
