package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"controlledreduction/algebra"
	"controlledreduction/config"
	"controlledreduction/errs"
	"controlledreduction/internal/logging"
	"controlledreduction/poly"
	"controlledreduction/zeta"
)

type trace struct {
	P          uint64  `json:"p"`
	A          int64   `json:"a_p"`
	Normalized float64 `json:"normalized"`
}

// normalized returns -c_1 / (r p^(w/2)) so that it lies in [-1, 1].
func normalized(res *zeta.Result) (int64, float64) {
	r := len(res.Coeffs) - 1
	if r < 1 {
		return 0, 0
	}
	a := new(big.Int).Neg(res.Coeffs[1]).Int64()
	scale := float64(r) * math.Pow(float64(res.Prime), float64(res.Weight)/2)
	return a, float64(a) / scale
}

func histogram(values []float64, nbins int) (labels []string, counts []int) {
	counts = make([]int, nbins)
	width := 2.0 / float64(nbins)
	for _, v := range values {
		idx := int(math.Floor((v + 1) / width))
		idx = min(max(idx, 0), nbins-1)
		counts[idx]++
	}
	labels = make([]string, nbins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.2f", -1+(float64(i)+0.5)*width)
	}
	return
}

// semicircle is the expected bin count under the Sato-Tate measure
// (2/pi) sqrt(1 - x^2) dx.
func semicircle(n, nbins int) []opts.LineData {
	cdf := func(x float64) float64 {
		x = max(-1, min(1, x))
		return (x*math.Sqrt(1-x*x) + math.Asin(x)) / math.Pi
	}
	width := 2.0 / float64(nbins)
	out := make([]opts.LineData, nbins)
	for i := range out {
		lo := -1 + float64(i)*width
		out[i] = opts.LineData{Value: float64(n) * (cdf(lo+width) - cdf(lo))}
	}
	return out
}

func newChart(title string, ts []trace, nbins int) *charts.Bar {
	vals := make([]float64, len(ts))
	for i, t := range ts {
		vals[i] = t.Normalized
	}
	labels, counts := histogram(vals, nbins)
	items := make([]opts.BarData, nbins)
	for i, c := range counts {
		items[i] = opts.BarData{Value: c}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d primes", len(ts))}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("count", items).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	line := charts.NewLine()
	line.SetXAxis(labels).AddSeries("semicircle", semicircle(len(ts), nbins))
	bar.Overlap(line)
	return bar
}

func newTraceChart(ts []trace) *charts.Line {
	labels := make([]string, len(ts))
	items := make([]opts.LineData, len(ts))
	for i, t := range ts {
		labels[i] = fmt.Sprint(t.P)
		items[i] = opts.LineData{Value: t.Normalized}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "normalized trace by prime"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(labels).AddSeries("a_p", items)
	return line
}

func main() {
	f := flag.String("f", "y^2*z - x^3 - x*z^2 - z^3", "defining form")
	vars := flag.String("vars", "x,y,z", "comma separated variable names")
	lo := flag.Uint64("from", 5, "first prime")
	hi := flag.Uint64("to", 200, "last prime")
	nbins := flag.Int("bins", 20, "histogram bins")
	cfgPath := flag.String("config", "", "JSON settings file")
	outDir := flag.String("out", "Measure_Reports", "output directory")
	verbose := flag.Bool("v", false, "verbose")
	flag.Parse()

	form, err := poly.Parse(*f, strings.Split(*vars, ","))
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	cfg := config.Default()
	if *cfgPath != "" {
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	lg := logging.Discard()
	if *verbose {
		lg = logging.New(os.Stderr)
	}
	zopts, err := cfg.Options(lg)
	if err != nil {
		log.Fatalf("options: %v", err)
	}

	ctx := context.Background()
	var ts []trace
	start := time.Now()
	for p := *lo; p <= *hi; p++ {
		if !algebra.IsPrime(p) {
			continue
		}
		res, err := zeta.Compute(ctx, form, p, zopts)
		switch {
		case errors.Is(err, errs.ErrNotSmooth), errors.Is(err, errs.ErrDomain):
			lg.Info("bad reduction", "p", p, "err", err)
			continue
		case err != nil:
			log.Fatalf("p=%d: %v", p, err)
		}
		a, x := normalized(res)
		ts = append(ts, trace{P: p, A: a, Normalized: x})
		lg.Info("trace", "p", p, "a_p", a, "normalized", x)
	}
	if len(ts) == 0 {
		log.Fatal("no prime of good reduction in range")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}
	stamp := time.Now().Format("20060102_150405")
	b, err := json.MarshalIndent(ts, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	jsonPath := filepath.Join(*outDir, fmt.Sprintf("satotate_%s.json", stamp))
	if err := os.WriteFile(jsonPath, b, 0o644); err != nil {
		log.Fatal(err)
	}

	page := components.NewPage()
	page.AddCharts(newChart(fmt.Sprintf("Sato-Tate: %s", *f), ts, *nbins), newTraceChart(ts))
	htmlPath := filepath.Join(*outDir, fmt.Sprintf("satotate_%s.html", stamp))
	out, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("create html: %v", err)
	}
	defer out.Close()
	if err := page.Render(out); err != nil {
		log.Fatalf("render html: %v", err)
	}
	fmt.Printf("%d primes in %v\n", len(ts), time.Since(start).Round(time.Millisecond))
	fmt.Println("Histogram page:", htmlPath)
	fmt.Println("Traces JSON:", jsonPath)
}
