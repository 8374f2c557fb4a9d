package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	ShutdownTimeout = 10 * time.Second
)

// Service defines the interface that all services must implement.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// ServerOptions holds configuration for running a set of services.
type ServerOptions struct {
	ServiceName string
	// Services start in order and stop in reverse order.
	Services []Service
	// Signals default to SIGINT and SIGTERM.
	Signals []os.Signal
}

// RunServer starts the services and handles their lifecycle until a signal,
// a service error or the end of ctx.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Printf("*** Starting service %s", opts.ServiceName)

	// Create error channel for service errors
	errChan := make(chan error, len(opts.Services))

	for _, svc := range opts.Services {
		go func() {
			if err := svc.Start(ctx); err != nil {
				select {
				case errChan <- err:
				default:
					log.Printf("Service error: %v", err)
				}
			}
		}()
	}

	return handleShutdown(ctx, cancel, opts, errChan)
}

func handleShutdown(ctx context.Context, cancel context.CancelFunc, opts *ServerOptions, errChan chan error) error {
	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, signals...)

	defer signal.Stop(sigChan)

	var cause error

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating shutdown", sig)
	case err := <-errChan:
		log.Printf("Received error: %v, initiating shutdown", err)
		cause = fmt.Errorf("service error: %w", err)
	case <-ctx.Done():
		log.Printf("Context canceled, initiating shutdown")
	}

	// Create timeout context for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	// Cancel main context
	cancel()

	// Stop the services
	var stopErrs []error

	for i := len(opts.Services) - 1; i >= 0; i-- {
		if err := opts.Services[i].Stop(shutdownCtx); err != nil {
			log.Printf("Error during service shutdown: %v", err)
			stopErrs = append(stopErrs, err)
		}
	}

	if cause != nil {
		return cause
	}

	if len(stopErrs) > 0 {
		return fmt.Errorf("shutdown error: %w", errors.Join(stopErrs...))
	}

	log.Printf("*** Service %s stopped", opts.ServiceName)

	return nil
}
