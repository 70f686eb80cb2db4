package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-sod/perfml/internal/config"
	"github.com/go-sod/perfml/internal/dispatcher"
	"github.com/go-sod/perfml/internal/logging"
	"github.com/go-sod/perfml/internal/setup"
	"github.com/mattn/go-isatty"
)

func main() {
	logger := logging.NewLoggerFromEnv()
	ctx, done := signal.NotifyContext(logging.WithLogger(context.Background(), logger), os.Interrupt, syscall.SIGTERM)

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	code := run(ctx, os.Stdin, interactive, os.Stdout, os.Args[1:])

	done()
	_ = logger.Sync()
	os.Exit(code)
}

// run answers one request and returns the process exit code. Only a
// configuration failure exits non-zero; it still prints a response line.
func run(ctx context.Context, in io.Reader, interactive bool, out io.Writer, args []string) int {
	logger := logging.FromContext(ctx)

	cfg := config.Config{}
	env, err := setup.Setup(ctx, &cfg)
	if err != nil {
		logger.Errorw("unable to load configuration", "error", err)
		writeResponse(out, dispatcher.Response{Error: fmt.Sprintf("setup: %v", err)})
		return 1
	}
	defer func() {
		if err := env.Close(ctx); err != nil {
			logger.Warnw("unable to release resources", "error", err)
		}
	}()

	d, err := env.Dispatcher(ctx)
	if err != nil {
		logger.Errorw("unable to build dispatcher", "error", err)
		writeResponse(out, dispatcher.Response{Error: fmt.Sprintf("setup: %v", err)})
		return 1
	}

	raw, err := readRequest(in, interactive, args)
	if err != nil {
		writeResponse(out, dispatcher.Response{Error: err.Error()})
		return 0
	}
	writeResponse(out, d.Handle(ctx, raw))
	return 0
}

func writeResponse(out io.Writer, resp dispatcher.Response) {
	if err := json.NewEncoder(out).Encode(resp); err != nil {
		_, _ = fmt.Fprintf(out, "{\"success\":false,\"error\":%q}\n", err.Error())
	}
}
