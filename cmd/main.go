// Command squadopt picks a fantasy football squad and its starting eleven.
//
//	squadopt optimize -players players.json [-budget 100] [-existing a,b,c -max-transfers 2]
//	squadopt optimize -players players.json -greedy
//	squadopt lineup -squad squad.json
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
	"strings"
	"syscall"

	"github.com/okian/squadopt/internal/adapters/repository"
	app "github.com/okian/squadopt/internal/app"
	"github.com/okian/squadopt/internal/config"
	"github.com/okian/squadopt/internal/domain/optimizer"
	"github.com/okian/squadopt/internal/domain/squad"
	"github.com/okian/squadopt/pkg/logger"
	"github.com/okian/squadopt/pkg/metrics"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `usage: squadopt <command> [flags]

commands:
  optimize   select a 15-player squad (and its starting eleven) from a player pool
  lineup     select the starting eleven of an existing squad

run "squadopt <command> -h" for the flags of a command
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// common holds the flags every command shares.
type common struct {
	configPath  string
	metricsFile string
	logJSON     bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file (default: $"+config.EnvConfig+")")
	fs.StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	fs.BoolVar(&c.logJSON, "log-json", false, "log JSON lines to stderr")
}

// run executes one command and returns the process exit code. Results go to
// stdout as JSON; logs and errors go to stderr.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = io.WriteString(stderr, usage)
		return exitUsage
	}

	var err error
	switch args[0] {
	case "optimize":
		err = runOptimize(ctx, args[1:], stdin, stdout, stderr)
	case "lineup":
		err = runLineup(ctx, args[1:], stdin, stdout, stderr)
	case "help", "-h", "-help", "--help":
		_, _ = io.WriteString(stdout, usage)
		return exitOK
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	default:
		_, _ = fmt.Fprintf(stderr, "squadopt %s: %v\n", args[0], err)
		return exitError
	}
}

// setup initializes logging and loads configuration.
func setup(ctx context.Context, c common, stderr io.Writer) (*config.Config, logger.Logger, error) {
	if err := logger.Init(logger.WithWriter(stderr), logger.WithJSON(c.logJSON)); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()

	path := c.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	cfg, err := config.LoadFile(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithLatencyBuckets(cfg.LatencyBucketsMS),
	)
	return cfg, log, nil
}

func newService(cfg *config.Config, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithRequestTimeout(cfg.RequestTimeout()),
		app.WithMaxPerClub(cfg.MaxPerClub),
		app.WithNodeLimit(cfg.NodeLimit),
		app.WithTolerance(cfg.LPTolerance),
		app.WithPresolve(cfg.Presolve),
	)
}

func runOptimize(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		c            common
		playersPath  = fs.String("players", repository.StdinPath, `player pool JSON file, "-" for stdin`)
		budget       = fs.Float64("budget", 0, "budget in millions (default: config budget)")
		existing     = fs.String("existing", "", "comma-separated ids of the current squad")
		maxTransfers = fs.Int("max-transfers", -1, "maximum players to replace from -existing (-1: unlimited)")
		lineup       = fs.Bool("lineup", true, "also select the starting eleven")
		greedy       = fs.Bool("greedy", false, "fill the squad by descending points instead of solving")
	)
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return errUsage
	}
	if *greedy && (flagSet(fs, "existing") || flagSet(fs, "max-transfers")) {
		_, _ = io.WriteString(stderr, "-greedy cannot be combined with -existing or -max-transfers\n")
		return errUsage
	}

	cfg, log, err := setup(ctx, c, stderr)
	if err != nil {
		return err
	}
	defer exportMetrics(ctx, log, c.metricsFile)

	if !flagSet(fs, "budget") {
		*budget = cfg.Budget
	}

	batch, err := repository.NewFileStore(*playersPath, repository.WithStdin(stdin), repository.WithLogger(log.Named("repository"))).Load(ctx)
	if err != nil {
		return err
	}

	req := optimizer.Request{
		Request: squad.Request{
			Players:       batch.Records,
			Budget:        *budget,
			ExistingSquad: splitIDs(*existing),
			Greedy:        *greedy,
		},
		IncludeStartingEleven: *lineup,
	}
	if *maxTransfers >= 0 {
		req.MaxTransfers = maxTransfers
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	res, err := svc.Optimize(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(stdout, res)
}

func runLineup(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lineup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		c         common
		squadPath = fs.String("squad", repository.StdinPath, `squad JSON file (array or optimize output), "-" for stdin`)
	)
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return errUsage
	}

	cfg, log, err := setup(ctx, c, stderr)
	if err != nil {
		return err
	}
	defer exportMetrics(ctx, log, c.metricsFile)

	batch, err := repository.NewFileStore(*squadPath, repository.WithStdin(stdin), repository.WithLogger(log.Named("repository"))).Load(ctx)
	if err != nil {
		return err
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	res, err := svc.SelectLineup(ctx, batch.Records)
	if err != nil {
		return err
	}
	return writeJSON(stdout, res)
}

func exportMetrics(ctx context.Context, log logger.Logger, path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		log.Error(ctx, "metrics export failed", logger.String("path", path), logger.Error(err))
	}
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
