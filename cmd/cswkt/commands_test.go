package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wgs84Geog = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]]`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestImportFromStdin(t *testing.T) {
	out, _, err := execute(t, wgs84Geog, "import")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if m["flavor"] != "OGC" || m["kind"] != "GEOGCS" {
		t.Fatalf("unexpected result: %v", m)
	}
}

func TestImportFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wgs84.wkt")
	if err := os.WriteFile(path, []byte(wgs84Geog), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := execute(t, "", "import", "--flavor", "OGC", path); err != nil {
		t.Fatalf("import file: %v", err)
	}
}

func TestImportErrorIsReported(t *testing.T) {
	_, stderr, err := execute(t, `PROJCS["X",GEOGCS[`, "import")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(stderr, "cswkt import:") {
		t.Fatalf("stderr=%q", stderr)
	}
}

func TestExport(t *testing.T) {
	out, _, err := execute(t, `{"ellipsoid":{"key":"WGS84"}}`, "export", "--flavor", "OGC")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.TrimSpace(out) != `SPHEROID["WGS 84",6378137.0,298.257223563]` {
		t.Fatalf("out=%q", out)
	}

	req := `{"coordsys":{"key":"AL-E","projection":"SYS34","datum":"NAD27","unit":"US Foot","unit_scale":0.3048006096012192,` +
		`"params":[101,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]}}`
	_, stderr, err := execute(t, req, "export", "--flavor", "ESRI")
	if err != nil {
		t.Fatalf("export with substitution: %v", err)
	}
	if !strings.Contains(stderr, "written as Autodesk") {
		t.Fatalf("substitution note missing: %q", stderr)
	}
	if _, _, err := execute(t, req, "export", "--flavor", "ESRI", "--no-substitute"); err == nil {
		t.Fatalf("expected error with --no-substitute")
	}
}

func TestDetectParseProbeFlavors(t *testing.T) {
	out, _, err := execute(t, wgs84Geog, "detect")
	if err != nil || !strings.Contains(out, `"flavor": "OGC"`) {
		t.Fatalf("detect: %v %q", err, out)
	}

	out, _, err = execute(t, wgs84Geog, "parse")
	if err != nil || !strings.Contains(out, `"type": "SPHEROID"`) {
		t.Fatalf("parse: %v %q", err, out)
	}

	out, _, err = execute(t, wgs84Geog, "probe", "--lon", "12.5", "--lat", "55")
	if err != nil || !strings.HasPrefix(out, "12.5000 55.0000") {
		t.Fatalf("probe: %v %q", err, out)
	}

	out, _, err = execute(t, "", "flavors")
	if err != nil {
		t.Fatalf("flavors: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 11 || !strings.Contains(lines[0], "User") {
		t.Fatalf("flavors output:\n%s", out)
	}
}
