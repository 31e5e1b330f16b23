package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/okian/vrai/internal/smoke"
	"github.com/okian/vrai/pkg/logger"
)

const runTimeout = 2 * time.Minute

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("smoke", pflag.ContinueOnError)
	var (
		baseURL = flags.String("url", smoke.DefaultBaseURL, "Base URL of the service")
		timeout = flags.Duration("timeout", smoke.DefaultTimeout, "Timeout of the analysis request")
		trainee = flags.String("trainee", "", "Trainee id to submit (default: test-pilot-TIMESTAMP)")
		logFile = flags.String("log", "", "Also write output to this file")
		verbose = flags.Bool("verbose", false, "Log full response bodies")
		help    = flags.BoolP("help", "h", false, "Show help")
	)
	flags.SetOutput(os.Stderr)
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *help {
		smoke.ShowHelp(os.Stdout)
		return 0
	}
	// A positional base URL wins over --url.
	if flags.NArg() == 1 {
		*baseURL = flags.Arg(0)
	} else if flags.NArg() > 1 {
		smoke.ShowHelp(os.Stderr)
		return 2
	}

	closer, err := smoke.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	report, err := smoke.Run(ctx, &smoke.Config{
		BaseURL:   *baseURL,
		Timeout:   *timeout,
		TraineeID: *trainee,
		LogFile:   *logFile,
		Verbose:   *verbose,
	})
	if err != nil || !report.Passed() {
		logger.Get().Error(ctx, "some checks failed", logger.Error(err))
		return 1
	}
	logger.Get().Info(ctx, "all checks passed", logger.Duration("duration", report.Duration))
	return 0
}
