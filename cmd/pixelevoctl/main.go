package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"pixelevo/internal/palette"
	"pixelevo/pkg/pixelevo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "view":
		return runView(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "palette":
		return runPalette(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	common := addClientFlags(fs)
	reqFlags := addRequestFlags(fs, 100)
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := reqFlags.request()
	if err != nil {
		return err
	}
	if req.Generations <= 0 {
		return errors.New("gens must be > 0 for a headless run")
	}

	logger, err := common.logger(os.Stderr)
	if err != nil {
		return err
	}
	client, err := common.client(logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req.RunRequest)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(os.Stdout, summary)
	}

	fmt.Printf("run completed run_id=%s generations=%s initial_mean=%.3f final_mean=%.3f improvement=%.3f best=%d mutations=%s\n",
		summary.RunID,
		humanize.Comma(int64(summary.Generations)),
		summary.Summary.InitialMean,
		summary.Summary.FinalMean,
		summary.Summary.Improvement,
		summary.Summary.BestEver,
		humanize.Comma(int64(summary.Summary.TotalMutations)),
	)
	fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := addClientFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	logger, err := common.logger(os.Stderr)
	if err != nil {
		return err
	}
	client, err := common.client(logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, pixelevo.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		return writeJSON(os.Stdout, runs)
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s created_at=%s size=%d cells=%s band=%d seed=%d generations=%s final_mean=%.3f\n",
			r.RunID,
			r.CreatedAtUTC,
			r.Size,
			humanize.Comma(int64(r.Size*r.Size)),
			r.BandWidth,
			r.Seed,
			humanize.Comma(int64(r.Generations)),
			r.FinalMeanFitness,
		)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	common := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run from run index")
	limit := fs.Int("limit", 50, "print only the most recent N generations (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("diagnostics requires --run-id or --latest")
	}
	if *limit < 0 {
		*limit = 0
	}

	logger, err := common.logger(os.Stderr)
	if err != nil {
		return err
	}
	client, err := common.client(logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, pixelevo.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		return writeJSON(os.Stdout, diagnostics)
	}
	for _, d := range diagnostics {
		fmt.Printf("generation=%d target=%s best=%d mean=%.3f worst=%d elite_cutoff=%d worst_cutoff=%d mutations=%d\n",
			d.Generation,
			d.Target.Hex(),
			d.BestFitness,
			d.MeanFitness,
			d.WorstFitness,
			d.EliteCutoff,
			d.WorstCutoff,
			d.Mutations,
		)
	}
	return nil
}

func runPalette(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit the palette as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries := palette.All()
	if *jsonOut {
		type paletteItem struct {
			Name string `json:"name"`
			Hex  string `json:"hex"`
		}
		items := make([]paletteItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, paletteItem{Name: e.Name, Hex: e.Color.Hex()})
		}
		return writeJSON(os.Stdout, items)
	}
	for _, e := range entries {
		fmt.Printf("%-10s %s %s\n", e.Name, e.Color.Hex(), e.Color)
	}
	return nil
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: pixelevoctl <run|serve|view|runs|diagnostics|palette> [flags]", msg)
}
