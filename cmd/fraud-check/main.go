package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/di"
	"github.com/mikey/fraud-detector/internal/factory"
	"github.com/mikey/fraud-detector/internal/ports"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitClean   = 0
	exitError   = 1
	exitFlagged = 2
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	flags, err := di.ParseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitClean
		}
		fmt.Fprintf(os.Stderr, "Invalid arguments: %v\n", err)
		return exitError
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := exitClean
	err = container.Invoke(func(
		logger *zap.Logger,
		service *core.DetectionService,
		emailFilter ports.EmailFilter,
		resources *factory.Resources,
	) error {
		defer logger.Sync()
		defer resources.Close()

		s := &screener{
			flags:   flags,
			service: service,
			filter:  emailFilter,
			in:      os.Stdin,
			out:     os.Stdout,
		}
		flagged, err := s.run(ctx)
		if err != nil {
			return err
		}
		if flagged {
			code = exitFlagged
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	return code
}
