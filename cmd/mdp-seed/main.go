package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/okian/mdpsurvey/internal/seeder"
	"github.com/okian/mdpsurvey/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultRunTime = 10 * time.Minute
)

var CLI struct {
	Version kong.VersionFlag
	Log     string `help:"Also write logs to this file." type:"path"`
	JSON    bool   `help:"Log as JSON."`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Generate GenerateCmd `cmd:"" help:"Write synthetic evaluations to a file."`
	Submit   SubmitCmd   `cmd:"" help:"Submit evaluations to a running service." default:"withargs"`
}

// GenerateCmd writes generated evaluations without contacting a service.
type GenerateCmd struct {
	Count  int    `short:"n" help:"Number of evaluations." default:"100"`
	Seed   uint64 `help:"Generator seed (0 uses the clock)." default:"0"`
	Output string `short:"o" help:"Output file." type:"path" required:""`
}

// Run implements the generate command.
func (c *GenerateCmd) Run(ctx context.Context) error {
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}
	evals := seeder.NewGenerator(c.Seed).Generate(c.Count)
	if err := seeder.WriteFile(c.Output, evals); err != nil {
		return err
	}
	logger.Get().Info(ctx, "evaluations written",
		logger.Int("count", len(evals)),
		logger.String("file", c.Output))
	return nil
}

// SubmitCmd sends evaluations to a running service and checks the result.
type SubmitCmd struct {
	URL     string        `help:"Base URL of the service." default:"http://localhost:3001"`
	Count   int           `short:"n" help:"Number of evaluations to generate." default:"100"`
	Workers int           `help:"Concurrent submitters (default CPU cores * 2)."`
	Timeout time.Duration `help:"HTTP request timeout." default:"30s"`
	Seed    uint64        `help:"Generator seed (0 uses the clock)." default:"0"`
	Replays int           `help:"Times to resend each evaluation with its idempotency key." default:"0"`
	Input   string        `short:"i" help:"Submit evaluations from this file instead of generating." type:"existingfile"`
	Output  string        `short:"o" help:"Also save generated evaluations here." type:"path"`
	Verify  bool          `help:"Verify /api/survey-stats after submitting." default:"true" negatable:""`
}

// Run implements the submit command.
func (c *SubmitCmd) Run(ctx context.Context) error {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * defaultWorkers
	}
	_, err := seeder.Run(ctx, &seeder.Config{
		BaseURL:    c.URL,
		Count:      c.Count,
		Workers:    workers,
		Timeout:    c.Timeout,
		Seed:       c.Seed,
		Replays:    c.Replays,
		InputFile:  c.Input,
		OutputFile: c.Output,
		Verify:     c.Verify,
	})
	return err
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("mdp-seed"),
		kong.Description("Generate and submit synthetic MDP evaluations."),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	if err := logger.InitWithOptions(logger.WithFile(CLI.Log), logger.WithJSON(CLI.JSON)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	if CLI.Verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunTime)

	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run()

	cancel()
	stop()
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
