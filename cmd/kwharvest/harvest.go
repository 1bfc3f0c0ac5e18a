package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kwharvest"
	logpkg "github.com/kailas-cloud/kwharvest/internal/logger"
)

// Output formats.
const (
	formatCSV  = "csv"
	formatText = "txt"
)

type harvestFlags struct {
	locale     string
	providers  []string
	strategies kwharvest.Strategies
	format     string
	out        string

	redisAddr     string
	redisPassword string
	batchSize     int
	pacing        time.Duration
	relayURL      string
	logLevel      string
}

func newHarvestCmd() *cobra.Command {
	f := &harvestFlags{}
	cmd := &cobra.Command{
		Use:   "harvest <seed...>",
		Short: "Harvest keywords for a seed and write them as CSV or text",
		Long: `Expand the seed with the selected strategies, query every selected provider
and write the deduplicated keywords. Use "*" in the seed to mark where letters go.
Ctrl-C stops the run and writes what was gathered so far.`,
		Example: `  kwharvest harvest --providers google,youtube --en-suffix "gift card"
  kwharvest harvest --fa-az --deep --format txt --out keywords.txt "خرید *"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runHarvest(ctx, f, strings.Join(args, " "), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.locale, "gl", "IR", "Region hint passed to providers")
	fl.StringSliceVarP(&f.providers, "providers", "p", []string{"google"},
		"Providers to query: "+strings.Join(kwharvest.Providers(), ", "))
	fl.BoolVar(&f.strategies.PersianAZ, "fa-az", false, "Append each Persian letter")
	fl.BoolVar(&f.strategies.PersianDouble, "fa-double", false, "Append each Persian letter pair")
	fl.BoolVar(&f.strategies.EnglishPrefix, "en-prefix", false, "Prepend each English letter")
	fl.BoolVar(&f.strategies.EnglishSuffix, "en-suffix", false, "Append each English letter")
	fl.BoolVar(&f.strategies.Questions, "questions", false, "Prefix question words")
	fl.BoolVar(&f.strategies.Deep, "deep", false, "Query the first discovered keywords again")
	fl.BoolVar(&f.strategies.MiddleGap, "middle-gap", false, "Insert letters between the seed's words")
	fl.StringVarP(&f.format, "format", "f", formatCSV, "Output format: csv or txt")
	fl.StringVarP(&f.out, "out", "o", "", "Output file (default stdout)")
	fl.StringVar(&f.redisAddr, "redis", "", "Redis or Valkey address for the suggestion cache")
	fl.StringVar(&f.redisPassword, "redis-password", "", "Redis password")
	fl.IntVar(&f.batchSize, "batch-size", 3, "Queries sent concurrently")
	fl.DurationVar(&f.pacing, "pacing", 200*time.Millisecond, "Delay between batches")
	fl.StringVar(&f.relayURL, "relay-url", "", "Text relay for providers without a JSON endpoint")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")
	return cmd
}

func (f *harvestFlags) validate() error {
	switch f.format {
	case formatCSV, formatText:
		return nil
	default:
		return fmt.Errorf("unknown format %q, want csv or txt", f.format)
	}
}

func (f *harvestFlags) request(seed string) kwharvest.Request {
	return kwharvest.Request{
		Seed:       seed,
		Locale:     f.locale,
		Providers:  f.providers,
		Strategies: f.strategies,
	}
}

func (f *harvestFlags) clientOptions(logger *zap.Logger) []kwharvest.Option {
	opts := []kwharvest.Option{
		kwharvest.WithLogger(logger),
		kwharvest.WithBatchSize(f.batchSize),
		kwharvest.WithPacing(f.pacing),
	}
	if f.relayURL != "" {
		opts = append(opts, kwharvest.WithRelayURL(f.relayURL))
	}
	if f.redisAddr != "" {
		opts = append(opts, kwharvest.WithRedis(f.redisAddr, f.redisPassword))
	}
	return opts
}

func runHarvest(ctx context.Context, f *harvestFlags, seed string, stdout, stderr io.Writer) error {
	if err := f.validate(); err != nil {
		return err
	}

	logger, err := logpkg.NewLogger("cli", f.logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := kwharvest.New(f.clientOptions(logger)...)
	if err != nil {
		return err
	}
	defer client.Close()

	req := f.request(seed)
	queue, err := client.Expand(req)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stderr, "harvesting %d queries from %s\n", len(queue), strings.Join(req.Providers, ", "))

	res, err := client.Harvest(ctx, req)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stderr, "%s: %d keywords\n", res.Status, len(res.Keywords))

	return writeKeywords(client, f, res.Keywords, stdout)
}

func writeKeywords(client *kwharvest.Client, f *harvestFlags, keywords []kwharvest.Keyword, stdout io.Writer) (err error) {
	w := stdout
	if f.out != "" {
		file, createErr := os.Create(f.out)
		if createErr != nil {
			return fmt.Errorf("create output: %w", createErr)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		w = file
	}

	if f.format == formatText {
		return client.WriteText(w, keywords)
	}
	return client.WriteCSV(w, keywords)
}
