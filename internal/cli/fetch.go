package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kshetline/asteroid-comet-data-generator/internal/config"
	"github.com/kshetline/asteroid-comet-data-generator/internal/horizons"
	"github.com/kshetline/asteroid-comet-data-generator/internal/storage"
)

var fetchFlags struct {
	jobFile string
	start   string
	stop    string
	step    time.Duration
	refine  int
	observe bool
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [body...]",
	Short: "Fetch osculating elements for one or more bodies",
	Long: `Fetches osculating orbital elements over the requested window and saves
one JSON file per body. Bodies are Horizons designations: record numbers
("1", "433"), provisional designations ("2024 YR4"), or comet
designations ("C/2023 A3").

Either list bodies with --start/--stop, or point --job at a job file.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchFlags.jobFile, "job", "", "job file describing bodies and window")
	fetchCmd.Flags().StringVar(&fetchFlags.start, "start", "", "window start (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchFlags.stop, "stop", "", "window stop (YYYY-MM-DD)")
	fetchCmd.Flags().DurationVar(&fetchFlags.step, "step", 24*time.Hour, "sample interval")
	fetchCmd.Flags().IntVar(&fetchFlags.refine, "refine", 0, "refinement depth around element discontinuities")
	fetchCmd.Flags().BoolVar(&fetchFlags.observe, "observe", false, "echo the raw session to stdout")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	job, err := resolveJob(args)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Output.Dir)
	if err != nil {
		return err
	}

	hcfg := horizonsConfig()
	if fetchFlags.observe {
		hcfg.Observer = os.Stdout
	}
	client := horizons.NewClient(hcfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	span := horizons.Span{Start: job.Start, Stop: job.Stop, Step: job.Step}
	var failed []string
	for _, body := range job.Bodies {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		set, err := client.FetchElements(ctx, body, span)
		if err == nil && job.RefineDepth > 0 {
			set, err = client.Refine(ctx, set, span, job.RefineDepth)
		}
		if err != nil {
			log.Error().Err(err).Str("body", body).Msg("Fetch failed")
			failed = append(failed, body)
			continue
		}
		if err := store.Save(set); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("fetch failed for %d of %d bodies: %v", len(failed), len(job.Bodies), failed)
	}
	return nil
}

// resolveJob builds the effective job from either a job file or the
// command line.
func resolveJob(args []string) (*config.Job, error) {
	if fetchFlags.jobFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("list bodies either in the job file or as arguments, not both")
		}
		job, err := config.LoadJob(fetchFlags.jobFile)
		if err != nil {
			return nil, err
		}
		if fetchFlags.refine > 0 {
			job.RefineDepth = fetchFlags.refine
		}
		return job, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("no bodies given; list designations or use --job")
	}

	start, err := parseDay(fetchFlags.start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}
	stop, err := parseDay(fetchFlags.stop)
	if err != nil {
		return nil, fmt.Errorf("invalid --stop: %w", err)
	}

	job := &config.Job{
		Bodies:      args,
		Start:       start,
		Stop:        stop,
		Step:        fetchFlags.step,
		RefineDepth: fetchFlags.refine,
	}
	return job, job.Validate()
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.Parse("2006-01-02", s)
}
