package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"time"

	"controlledreduction/algebra"
	"controlledreduction/config"
	"controlledreduction/dr"
	"controlledreduction/drnd"
	"controlledreduction/hypersurface"
	"controlledreduction/hypersurfacend"
	"controlledreduction/internal/logging"
	"controlledreduction/pointcount"
	"controlledreduction/poly"
	"controlledreduction/prof"
	"controlledreduction/solve"
	"controlledreduction/store"
	"controlledreduction/zeta"
)

func usage() {
	fmt.Println(`usage: zeta <compute|frobenius|count|smooth|cache> [options]

Subcommands:
  compute    Zeta numerator P(T) of V(f) over GF(p)
             Flags:
               -f       <poly>    defining form, e.g. "y^2*z - x^3 - x*z^2 - z^3" (required)
               -vars    <a,b,..>  variable names (default: x0, x1, ... from the form)
               -p       <prime>   characteristic (required)
               -config  <path>    JSON settings (growth, max_retries, regime, threads, cache_dir, precision_hint)
               -N       <int>     first p-adic precision (default: heuristic)
               -regime  <auto|exact|truncated>
               -threads <int>     worker count (default: all CPUs)
               -cache   <dir>     reuse reduction and Frobenius matrices across runs
               -counts  <int>     also print #X(GF(p^j)) for j <= counts
               -json              print the result as JSON
               -v                 log progress to stderr

  frobenius  Print the lifted Frobenius matrix; -toric uses the torus complement
  count      Brute-force #X(GF(p^r)) for r = 1..-r
  smooth     Report whether V(f) mod p is smooth (and non-degenerate with -toric)
  cache      <list|clear> -dir <dir>`)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	switch os.Args[1] {
	case "compute":
		runCompute(ctx, os.Args[2:])
	case "frobenius":
		runFrobenius(ctx, os.Args[2:])
	case "count":
		runCount(ctx, os.Args[2:])
	case "smooth":
		runSmooth(os.Args[2:])
	case "cache":
		runCache(os.Args[2:])
	default:
		usage()
	}
}

type formFlags struct {
	f    *string
	vars *string
	p    *uint64
}

func addForm(fs *flag.FlagSet) formFlags {
	return formFlags{
		f:    fs.String("f", "", "defining form"),
		vars: fs.String("vars", "", "comma separated variable names"),
		p:    fs.Uint64("p", 0, "prime"),
	}
}

func (ff formFlags) parse() *poly.Poly {
	if *ff.f == "" || *ff.p == 0 {
		log.Fatal("-f and -p are required")
	}
	var vars []string
	if *ff.vars != "" {
		for _, v := range strings.Split(*ff.vars, ",") {
			vars = append(vars, strings.TrimSpace(v))
		}
	}
	f, err := poly.Parse(*ff.f, vars)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	return f
}

func logger(verbose bool) *slog.Logger {
	if verbose {
		return logging.New(os.Stderr)
	}
	return nil
}

func runCompute(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("compute", flag.ExitOnError)
	form := addForm(fs)
	cfgPath := fs.String("config", "", "JSON settings file")
	N := fs.Int("N", 0, "first precision")
	regime := fs.String("regime", "", "auto|exact|truncated")
	threads := fs.Int("threads", 0, "worker count")
	cache := fs.String("cache", "", "cache directory")
	counts := fs.Int("counts", 0, "point counts to print")
	asJSON := fs.Bool("json", false, "JSON output")
	verbose := fs.Bool("v", false, "verbose")
	fs.Parse(args)
	f := form.parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	// flags override the file
	if *N > 0 {
		cfg.PrecisionHint = *N
	}
	if *regime != "" {
		r, err := hypersurface.ParseRegime(*regime)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Regime = r
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *cache != "" {
		cfg.CacheDir = *cache
	}
	opts, err := cfg.Options(logger(*verbose))
	if err != nil {
		log.Fatalf("options: %v", err)
	}

	res, err := zeta.Compute(ctx, f, *form.p, opts)
	if err != nil {
		log.Fatalf("compute: %v", err)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatal(err)
		}
		return
	}
	fmt.Printf("P(T) = %s\n", res)
	fmt.Printf("precision=%d weight=%d sign=%+d functional_equation=%v riemann_hypothesis=%v\n",
		res.Precision, res.Weight, res.Sign, res.FunctionalEquation, res.RiemannHypothesis)
	for i, a := range res.Attempts {
		status := "ok"
		if a.Err != "" {
			status = a.Err
		}
		fmt.Printf("attempt %d: N=%d W=%d regime=%s %v %s\n", i+1, a.Precision, a.WorkingPrecision, a.Regime, a.Duration.Round(time.Millisecond), status)
	}
	if rho, err := res.PicardBound(); err == nil {
		fmt.Printf("geometric picard bound: %d\n", rho)
	}
	if *counts > 0 {
		cs, err := res.PointCounts(*counts)
		if err != nil {
			log.Fatal(err)
		}
		for j, c := range cs {
			fmt.Printf("#X(GF(%d^%d)) = %s\n", *form.p, j+1, c)
		}
	}
	if *verbose {
		for _, l := range prof.Labels(res.Timings) {
			fmt.Fprintf(os.Stderr, "%-24s %v\n", l, res.Timings[l].Round(time.Millisecond))
		}
	}
}

func runFrobenius(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("frobenius", flag.ExitOnError)
	form := addForm(fs)
	N := fs.Int("N", 0, "precision (default: heuristic)")
	toric := fs.Bool("toric", false, "torus complement")
	threads := fs.Int("threads", 0, "worker count")
	verbose := fs.Bool("v", false, "verbose")
	fs.Parse(args)
	f := form.parse()
	p := *form.p

	var s dr.Strategy
	var err error
	if *toric {
		s, err = drnd.NewToric(f)
	} else {
		s, err = dr.NewStandard(f)
	}
	if err != nil {
		log.Fatal(err)
	}
	if *N <= 0 {
		*N = zeta.HeuristicPrecision(f.NVars()-1, f.Degree(), p)
	}
	W := hypersurface.WorkingPrecision(s, p, *N)
	r, err := algebra.NewZmodBig(p, W)
	if err != nil {
		log.Fatal(err)
	}
	opts := hypersurface.Options{Precision: *N, Threads: *threads, Logger: logger(*verbose)}
	var e *hypersurface.Engine[*big.Int]
	if *toric {
		e, err = hypersurfacend.New[*big.Int](f, r, opts)
	} else {
		e, err = hypersurface.New[*big.Int](s, r, opts)
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := e.DR().ComputeEverything(ctx, e.TopLevel()); err != nil {
		log.Fatal(err)
	}
	fm, err := e.FrobMatrix(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("p=%d N=%d W=%d scale=p^%d abs_precision=%d\n", p, *N, W, fm.Scale, fm.AbsPrecision)
	for _, row := range fm.Lifted() {
		fmt.Println(strings.Join(row, " "))
	}
}

func runCount(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	form := addForm(fs)
	r := fs.Int("r", 1, "largest extension degree")
	fs.Parse(args)
	f := form.parse()
	cs, err := pointcount.Counts(ctx, f, *form.p, *r)
	if err != nil {
		log.Fatal(err)
	}
	for j, c := range cs {
		fmt.Printf("#X(GF(%d^%d)) = %d\n", *form.p, j+1, c)
	}
}

func runSmooth(args []string) {
	fs := flag.NewFlagSet("smooth", flag.ExitOnError)
	form := addForm(fs)
	toric := fs.Bool("toric", false, "also test non-degeneracy")
	fs.Parse(args)
	f := form.parse()
	p := *form.p
	singular, err := solve.HasSingularPoint(f, p)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("smooth: %v\n", !singular)
	if singular {
		pts, err := solve.SingularPoints(f, p, 8)
		if err == nil {
			for _, x := range pts {
				fmt.Printf("  singular point %v\n", x)
			}
		}
	}
	if *toric {
		ok, err := solve.IsNondegenerate(f, p)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("non-degenerate: %v\n", ok)
	}
}

func runCache(args []string) {
	if len(args) < 1 {
		usage()
	}
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	dir := fs.String("dir", "", "cache directory")
	fs.Parse(args[1:])
	st, err := store.Open(*dir, nil)
	if err != nil {
		log.Fatal(err)
	}
	keys, err := st.Keys()
	if err != nil {
		log.Fatal(err)
	}
	switch args[0] {
	case "list":
		for _, k := range keys {
			fmt.Println(k)
		}
	case "clear":
		for _, k := range keys {
			if err := st.Delete(k); err != nil {
				log.Fatal(err)
			}
		}
		fmt.Printf("removed %d entries\n", len(keys))
	default:
		usage()
	}
}
