package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/csconv"
	"github.com/mohammed-shakir/cs-wkt/internal/dictionary"
	"github.com/mohammed-shakir/cs-wkt/internal/logger"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/service"
)

type globals struct {
	nameMapPath    string
	dictionaryPath string
	logLevel       string
	flavor         string
	noSubstitute   bool
}

type app struct {
	g      globals
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "cswkt",
		Short:         "Translate coordinate-system WKT between vendor flavors",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.g.nameMapPath, "namemap", os.Getenv("NAMEMAP_PATH"), "name map CSV (default: embedded table)")
	pf.StringVar(&a.g.dictionaryPath, "dictionary", os.Getenv("DICTIONARY_PATH"), "dictionary YAML (default: embedded)")
	pf.StringVar(&a.g.logLevel, "log-level", "warn", "log level")
	pf.StringVarP(&a.g.flavor, "flavor", "f", "", "WKT flavor (EPSG, ESRI, Oracle, Autodesk, OGC, ...)")

	root.AddCommand(
		a.importCmd(),
		a.exportCmd(),
		a.detectCmd(),
		a.parseCmd(),
		a.probeCmd(),
		a.flavorsCmd(),
	)

	// Errors are silenced in cobra and reported by wrapErrors instead.
	wrapErrors(root, stderr)
	return root
}

func wrapErrors(cmd *cobra.Command, stderr io.Writer) {
	for _, c := range cmd.Commands() {
		if c.RunE == nil {
			continue
		}
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err != nil {
				fmt.Fprintf(stderr, "cswkt %s: %v\n", cmd.Name(), err)
			}
			return err
		}
	}
}

func (a *app) translator() (*service.Translator, error) {
	zl := logger.Build(logger.Config{Level: a.g.logLevel, Console: true, Component: "cswkt"}, a.stderr)
	var (
		dict *dictionary.Store
		err  error
	)
	if a.g.dictionaryPath == "" {
		dict, err = dictionary.Default()
	} else {
		dict, err = dictionary.LoadFile(a.g.dictionaryPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	return service.New(namemap.NewRegistry(a.g.nameMapPath), dict, nil, logger.NewSlog(&zl), service.Options{
		AllowSubstitution: !a.g.noSubstitute,
	}), nil
}

func (a *app) flavor() (model.Flavor, error) {
	return model.ParseFlavor(a.g.flavor)
}

// readInput returns the named file, or stdin for no argument or "-".
func (a *app) readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printWarnings(ws []string) {
	for _, w := range ws {
		fmt.Fprintf(a.stderr, "warning: %s\n", w)
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file|-]",
		Short: "Convert WKT to definition records (JSON)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			f, err := a.flavor()
			if err != nil {
				return err
			}
			tr, err := a.translator()
			if err != nil {
				return err
			}
			res, err := tr.Import(cmd.Context(), text, f)
			if err != nil {
				return err
			}
			a.printWarnings(res.Warnings)
			return a.printJSON(res)
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var (
		kind      string
		authority bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "export [request.json|-]",
		Short: "Write definition records (export request JSON) as WKT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := a.readInput(args)
			if err != nil {
				return err
			}
			var req service.ExportRequest
			dec := json.NewDecoder(strings.NewReader(body))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				return fmt.Errorf("decode export request: %w", err)
			}
			if kind != "" {
				req.Kind = kind
			}
			if a.g.flavor != "" {
				f, err := a.flavor()
				if err != nil {
					return err
				}
				req.Flavor = f
			}
			req.Authority = req.Authority || authority
			tr, err := a.translator()
			if err != nil {
				return err
			}
			res, err := tr.Export(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(res)
			}
			a.printWarnings(res.Warnings)
			if res.Substituted {
				fmt.Fprintf(a.stderr, "note: written as %s; %s has no name for this projection\n", res.Flavor, res.Requested)
			}
			_, err = fmt.Fprintln(a.stdout, res.WKT)
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "coordsys, geogcs, datum or ellipsoid (default: inferred)")
	cmd.Flags().BoolVar(&authority, "authority", false, "emit AUTHORITY clauses where a code is known")
	cmd.Flags().BoolVar(&a.g.noSubstitute, "no-substitute", false, "fail instead of falling back to the Autodesk flavor")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [file|-]",
		Short: "Report the flavor of a WKT text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			f, err := a.flavor()
			if err != nil {
				return err
			}
			tr, err := a.translator()
			if err != nil {
				return err
			}
			res, err := tr.Detect(cmd.Context(), text, f)
			if err != nil {
				return err
			}
			if !res.Flavor.Valid() {
				return fmt.Errorf("%w: %s[%q]", csconv.ErrFlavorUndetermined, res.Kind, res.Name)
			}
			return a.printJSON(res)
		},
	}
}

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print the WKT element tree as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			tr, err := a.translator()
			if err != nil {
				return err
			}
			res, err := tr.Parse(cmd.Context(), text)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
}

func (a *app) probeCmd() *cobra.Command {
	var lon, lat float64
	cmd := &cobra.Command{
		Use:   "probe [file|-]",
		Short: "Import WKT and project a lon/lat point through it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			f, err := a.flavor()
			if err != nil {
				return err
			}
			tr, err := a.translator()
			if err != nil {
				return err
			}
			res, err := tr.Probe(cmd.Context(), text, f, lon, lat)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "%.4f %.4f %s\n", res.Point.X, res.Point.Y, res.Point.Unit)
			return err
		},
	}
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	return cmd
}

func (a *app) flavorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flavors",
		Short: "List flavors in detection precedence order",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			for i, f := range model.Precedence {
				if _, err := fmt.Fprintf(a.stdout, "%2d  %-9s code=%d\n", i+1, f, int(f)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
