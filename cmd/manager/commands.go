package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/CNES/opensand-sub000/pkg/alerts"
	"github.com/CNES/opensand-sub000/pkg/api"
	"github.com/CNES/opensand-sub000/pkg/config"
	"github.com/CNES/opensand-sub000/pkg/db"
	"github.com/CNES/opensand-sub000/pkg/lifecycle"
	"github.com/CNES/opensand-sub000/pkg/logging"
	"github.com/CNES/opensand-sub000/pkg/manager"
	"github.com/CNES/opensand-sub000/pkg/metrics"
)

const transferTimeout = 2 * time.Minute

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "opensand-manager",
	Short: "Drive an OpenSAND collector",
	Long: `opensand-manager registers on an OpenSAND collector, follows the probes
and events of the platform programs and controls what they report.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the manager with its HTTP API",
	Long: `Register on the collector, keep the recent probe values in memory,
record them in SQLite when db_path is set and serve the HTTP API and the
websocket feed when http_addr is set.`,
	Args: cobra.NoArgs,
	RunE: runManager,
}

var transferCmd = &cobra.Command{
	Use:   "transfer [dest]",
	Short: "Fetch the probe files gathered by the collector",
	Long: `Download the storage folder of the collector and extract it. The
collector starts a fresh folder for every transfer.

Examples:
  opensand-manager transfer
  opensand-manager transfer /srv/opensand/runs/test-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransfer,
}

var showRunCmd = &cobra.Command{
	Use:   "show-run [dir]",
	Short: "Summarize a transferred run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "/etc/opensand/manager.json", "config file")

	showRunCmd.Flags().Bool("points", false, "print every saved value")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(showRunCmd)
}

func loadConfig() (*config.ManagerConfig, io.Closer, error) {
	var cfg config.ManagerConfig
	if err := config.LoadAndValidate(cfgFile, &cfg); err != nil {
		return nil, nil, err
	}

	logFile, err := logging.Setup("manager", &cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	return &cfg, logFile, nil
}

// controllerService registers on the collector at start and leaves it at
// stop.
type controllerService struct {
	ctrl *manager.Controller
	cfg  *config.ManagerConfig
}

func (s *controllerService) Start(context.Context) error {
	return s.ctrl.RegisterOnCollector(s.cfg.CollectorAddrPort(), s.cfg.TransferPort)
}

func (s *controllerService) Stop(context.Context) error {
	if err := s.ctrl.UnregisterOnCollector(); err != nil {
		log.Printf("Failed to unregister: %v", err)
	}

	return s.ctrl.Close()
}

func runManager(cmd *cobra.Command, _ []string) error {
	cfg, logFile, err := loadConfig()
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctrl, err := manager.Listen(cfg.ListenAddr)
	if err != nil {
		return err
	}

	live := metrics.NewManager(cfg.BufferSize)
	hub := api.NewHub()
	observers := manager.MultiObserver{live, hub}

	services := []lifecycle.Service{&controllerService{ctrl: ctrl, cfg: cfg}}

	var apiOpts []api.Option

	if cfg.DBPath != "" {
		store, err := db.New(cfg.DBPath)
		if err != nil {
			_ = ctrl.Close()
			return err
		}
		defer store.Close()

		recorder := db.NewRecorder(store, ctrl.Programs, db.WithRetention(time.Duration(cfg.Retention)))
		observers = append(observers, recorder)
		services = append(services, recorder)
		apiOpts = append(apiOpts, api.WithHistory(store))
	}

	if len(cfg.Alerts.Webhooks) > 0 {
		notifier, err := newNotifier(&cfg.Alerts)
		if err != nil {
			_ = ctrl.Close()
			return err
		}

		observers = append(observers, notifier)
		services = append(services, notifier)
	}

	ctrl.SetObserver(observers)

	if cfg.HTTPAddr != "" {
		apiOpts = append(apiOpts, api.WithRunsDir(cfg.RunsDir))
		services = append(services, api.NewAPIServer(cfg.HTTPAddr, ctrl, live, hub, apiOpts...))
	}

	return lifecycle.RunServer(cmd.Context(), &lifecycle.ServerOptions{
		ServiceName: "opensand-manager",
		Services:    services,
	})
}

func newNotifier(cfg *alerts.Config) (*alerts.Notifier, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	alerters, err := cfg.Alerters()
	if err != nil {
		return nil, err
	}

	return alerts.NewNotifier(level, alerters...), nil
}

func runTransfer(cmd *cobra.Command, args []string) error {
	cfg, logFile, err := loadConfig()
	if err != nil {
		return err
	}
	defer logFile.Close()

	dest := filepath.Join(cfg.RunsDir, time.Now().Format("20060102-150405"))
	if len(args) == 1 {
		dest = args[0]
	}

	ctrl, err := manager.Listen(cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.RegisterOnCollector(cfg.CollectorAddrPort(), cfg.TransferPort); err != nil {
		return err
	}

	defer func() {
		if err := ctrl.UnregisterOnCollector(); err != nil {
			log.Printf("Failed to unregister: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), transferTimeout)
	defer cancel()

	if err := ctrl.TransferFromCollector(ctx, dest); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), dest)

	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	run, err := manager.LoadRun(args[0])
	if err != nil {
		return err
	}

	withPoints, _ := cmd.Flags().GetBool("points")

	return printRun(cmd.OutOrStdout(), run, withPoints)
}

func printRun(out io.Writer, run *manager.Run, withPoints bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "PROBE\tUNIT\tVALUES\tLAST\n")

	for _, prog := range run.Programs {
		for _, probe := range prog.Probes() {
			points := run.Points(probe)

			last := "-"
			if len(points) > 0 {
				p := points[len(points)-1]
				last = fmt.Sprintf("%d %g", p.Timestamp, p.Value)
			}

			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", probe.FullName(), probe.Unit(), len(points), last)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	for _, prog := range run.Programs {
		if events := run.Events(prog); len(events) > 0 {
			fmt.Fprintf(out, "%s: %d event(s)\n", prog.FullName(), len(events))
		}
	}

	if !withPoints {
		return nil
	}

	for _, prog := range run.Programs {
		for _, probe := range prog.Probes() {
			fmt.Fprintf(out, "\n%s (%s)\n", probe.FullName(), probe.Unit())

			for _, p := range run.Points(probe) {
				fmt.Fprintf(out, "%d %g\n", p.Timestamp, p.Value)
			}
		}
	}

	return nil
}
