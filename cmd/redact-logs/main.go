// Command redact-logs scrubs secrets, connection strings and personal data
// from log output before it is shared, using the same rules as the server's
// error redaction.
//
//	kubectl logs deploy/learnflex-api | redact-logs > scrubbed.log
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/learnflex/learnflex-api/internal/config"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
)

func main() {
	jsonOnly := flag.Bool("json", false, "redact only the string values of JSON log lines and leave keys intact")
	flag.Parse()

	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logger: %v\n", err)
		os.Exit(1)
	}

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			l.Error("failed to open input", slog.String("path", flag.Arg(0)), slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	n, err := redactStream(in, os.Stdout, *jsonOnly)
	if err != nil {
		l.Error("redaction failed", slog.Int("lines", n), slog.Any("error", err))
		os.Exit(1)
	}
}
