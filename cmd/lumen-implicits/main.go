package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/implicits"
	"github.com/funvibe/lumen/internal/run"
	"github.com/funvibe/lumen/internal/tree"
	"github.com/funvibe/lumen/internal/types"
)

var version = "0.1.0"

func main() {
	cmd := &cli.Command{
		Name:    "lumen-implicits",
		Usage:   "drive the Lumen implicit resolution engine on a scenario file",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "resolve the query of a scenario",
				ArgsUsage: "scenario.yaml",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "trace", Usage: "trace depth (-1 for unbounded)"},
					&cli.BoolFlag{Name: "legacy", Usage: "legacy source mode"},
				},
				Action: runAction,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().Get(0)
	if path == "" {
		return fmt.Errorf("scenario file expected")
	}
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}

	settings := config.DefaultSettings()
	settings.Legacy = sc.Legacy || cmd.Bool("legacy")
	settings.TraceDepth = sc.Trace
	if cmd.IsSet("trace") {
		settings.TraceDepth = int(cmd.Int("trace"))
	}

	r := run.New(settings)
	r.TraceTo(os.Stderr)
	ctx, w, err := sc.build(r.RootContext())
	if err != nil {
		return err
	}

	searcher := implicits.NewSearcher(ctx)
	result, err := runQuery(searcher, sc, w)
	if err != nil {
		return err
	}

	switch res := result.(type) {
	case *implicits.Success:
		fmt.Printf("success: %s\n", res.Tree.String())
		fmt.Printf("  via %s at level %d\n", res.Ref.String(), res.Level)
	case *implicits.Failure:
		fmt.Printf("failure: %s\n", res.String())
	}
	for _, warning := range searcher.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	return nil
}

func runQuery(searcher *implicits.Searcher, sc *Scenario, w *world) (implicits.SearchResult, error) {
	if sc.Query.View != nil {
		fromTpe, err := parseType(sc.Query.View.From, w)
		if err != nil {
			return nil, err
		}
		to, err := parseType(sc.Query.View.To, w)
		if err != nil {
			return nil, err
		}
		arg := &tree.Ident{
			Ref: types.TermRef{Prefix: types.NoPrefix, Sym: types.NewSymbol("x", nil, 0, fromTpe)},
			Tpe: fromTpe,
		}
		return searcher.InferViewFrom(arg, to), nil
	}
	if sc.Query.For == "" {
		return nil, fmt.Errorf("scenario has no query")
	}
	pt, err := parseType(sc.Query.For, w)
	if err != nil {
		return nil, err
	}
	return searcher.Infer(pt, nil), nil
}
