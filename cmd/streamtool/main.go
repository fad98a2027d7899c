package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/stream-handle/capi"
	"github.com/wippyai/stream-handle/errors"
	"github.com/wippyai/stream-handle/handle"
	"github.com/wippyai/stream-handle/registry"
)

type config struct {
	Output string `env:"STREAM_OUTPUT" envDefault:"stdout"`
	Debug  bool   `env:"STREAM_DEBUG"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var (
		output      = flag.String("output", cfg.Output, "Destination: discard, stdout, or a file path")
		debug       = flag.Bool("debug", cfg.Debug, "Enable debug logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		handle.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run streams stdin through a boundary handle, exercising the same entry
// points a foreign caller would use.
func run(output string) error {
	tok := newToken(output)
	if tok == 0 {
		return fmt.Errorf("could not open %q", output)
	}
	defer capi.HandleDestroy(tok)

	var total int64
	buf := make([]byte, 32*1024)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			ret := capi.HandleWrite(tok, buf[:n])
			if ret < 0 {
				return fmt.Errorf("write failed with status %d", ret)
			}
			total += int64(ret)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if ret := capi.HandleFlush(tok); ret < 0 {
		return fmt.Errorf("flush failed with status %d", ret)
	}

	fmt.Fprintf(os.Stderr, "%d bytes written to %s\n", total, output)
	return nil
}

func newToken(output string) registry.Token {
	switch output {
	case "discard":
		return capi.NewNullHandle()
	case "stdout":
		return capi.NewStdoutHandle()
	default:
		return capi.NewPathHandle(output)
	}
}

func statusString(code int32) string {
	switch {
	case code >= 0:
		return fmt.Sprintf("%d bytes", code)
	case code == errors.StatusPoisoned:
		return "poisoned"
	case code == errors.StatusInvalidHandle:
		return "invalid handle"
	case code == errors.StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("errno %d", -code)
	}
}
