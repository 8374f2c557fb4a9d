package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"github.com/kardianos/service"

	"github.com/CNES/opensand-sub000/pkg/collector"
	"github.com/CNES/opensand-sub000/pkg/config"
	"github.com/CNES/opensand-sub000/pkg/hosts"
	"github.com/CNES/opensand-sub000/pkg/lifecycle"
	"github.com/CNES/opensand-sub000/pkg/logging"
	"github.com/CNES/opensand-sub000/pkg/registry"
)

// cmd/collector/main.go

func main() {
	configPath := flag.String("config", "/etc/opensand/collector.json", "Path to config file")
	svcCmd := flag.String("service", "", "service control: install|uninstall|start|stop|restart")
	flag.Parse()

	var cfg config.CollectorConfig
	if err := config.LoadAndValidate(*configPath, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup("collector", &cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	absConfig, err := filepath.Abs(*configPath)
	if err != nil {
		log.Fatalf("Failed to resolve config path: %v", err)
	}

	p := &program{cfg: &cfg}

	s, err := service.New(p, &service.Config{
		Name:        cfg.ServiceName,
		DisplayName: "OpenSAND collector",
		Description: "Collects OpenSAND probes and events and relays them to the manager",
		Arguments:   []string{"-config", absConfig},
		Option:      service.KeyValue{"Restart": "on-failure"},
	})
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	if *svcCmd != "" {
		if err := service.Control(s, *svcCmd); err != nil {
			log.Fatalf("Service %s failed: %v", *svcCmd, err)
		}

		return
	}

	if err := s.Run(); err != nil {
		log.Fatalf("Collector failed: %v", err)
	}
}

type program struct {
	cfg    *config.CollectorConfig
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())

	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		if err := run(ctx, p.cfg); err != nil {
			log.Fatalf("Collector failed: %v", err)
		}
	}()

	return nil
}

func (p *program) Stop(service.Service) error {
	p.cancel()

	select {
	case <-p.done:
	case <-time.After(lifecycle.ShutdownTimeout):
		log.Printf("Collector did not stop within %v", lifecycle.ShutdownTimeout)
	}

	return nil
}

func run(ctx context.Context, cfg *config.CollectorConfig) error {
	registryOpts := []registry.Option{}
	if cfg.StorageDir != "" {
		registryOpts = append(registryOpts, registry.WithTempDir(cfg.StorageDir))
	}

	hostManager, err := registry.NewHostManager(registryOpts...)
	if err != nil {
		return err
	}

	defer func() {
		if err := hostManager.Close(); err != nil {
			log.Printf("Failed to close storage: %v", err)
		}
	}()

	engine, err := collector.Listen(cfg.ListenAddr, hostManager,
		collector.WithStatusInterval(time.Duration(cfg.StatusInterval)),
		collector.WithStatusTimeout(time.Duration(cfg.StatusTimeout)),
	)
	if err != nil {
		return err
	}

	services := []lifecycle.Service{engine}

	if cfg.TransferAddr != "" {
		transfer, err := collector.NewTransferServer(cfg.TransferAddr, engine)
		if err != nil {
			_ = engine.Stop(ctx)
			return err
		}

		services = append(services, transfer)
	}

	if cfg.HostsFile != "" {
		services = append(services, hosts.NewWatcher(cfg.HostsFile, engine))
	}

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: cfg.ServiceName,
		Services:    services,
	})
}
