package smoke

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/vrai/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging initialises the logger writing to stdout and, when logFile is
// set, to that file as well. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ShowHelp prints usage information for the smoke tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `VRAI Analyzer Smoke Test
========================

Checks a running analyzer: GET /, GET /docs and one POST /analyze.

Usage:
  smoke [options] [base_url]

Options:
  --url string        Base URL of the service (default "http://localhost:8000")
  --timeout duration  Timeout of the analysis request (default 30s)
  --trainee string    Trainee id to submit (default: test-pilot-TIMESTAMP)
  --log string        Also write output to this file
  --verbose           Log full response bodies
  --help              Show this help message

Examples:
  smoke https://vrai-analyzer-dev.example.net
  smoke --url http://localhost:8000 --verbose --log smoke.log
`)
}
