// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/cloud-native-messaging/pkg/broker"
	"github.com/NVIDIA/cloud-native-messaging/pkg/config"
	"github.com/NVIDIA/cloud-native-messaging/pkg/defaults"
	"github.com/NVIDIA/cloud-native-messaging/pkg/lifecycle"
	"github.com/NVIDIA/cloud-native-messaging/pkg/serializer"
	"github.com/NVIDIA/cloud-native-messaging/pkg/server"
)

// SystemdNotifierBeanName is the bean name of the sd_notify bridge.
const SystemdNotifierBeanName = "systemdNotifier"

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:                  "serve",
		EnableShellCompletion: true,
		Usage:                 "Run the configured listener containers and the HTTP API",
		Description: `Load a listener configuration, register its endpoints and run them until
interrupted.

Start-up order:
  1. Factories, the listener registry and the registrar are registered with
     a lifecycle context.
  2. The context is refreshed: buffered endpoints are turned into listener
     containers and auto-startup containers start.
  3. The registry is started, which also starts containers with autoStartup
     disabled.
  4. The HTTP API serves /v1/containers, publishing, health and metrics.

On SIGINT or SIGTERM the server drains, containers are stopped by phase and
the context is closed.

# Examples

Serve a local configuration:
  cnm serve --config listeners.yaml

Serve a configuration stored in a ConfigMap on port 9090:
  cnm serve --config cm://messaging/cnm-listeners --port 9090`,
		Flags: []cli.Flag{
			configFlag,
			kubeconfigFlag,
			&cli.StringFlag{
				Name:  "address",
				Usage: "Address the HTTP API binds to",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   server.DefaultPort,
				Sources: cli.EnvVars("PORT"),
				Usage:   "Port the HTTP API listens on",
			},
			&cli.IntFlag{
				Name:  "buffer-size",
				Value: broker.DefaultBufferSize,
				Usage: "Per consumer group message buffer of the in-memory broker",
			},
			&cli.DurationFlag{
				Name:  "stop-timeout",
				Value: defaults.LifecycleStopTimeout,
				Usage: "Time each lifecycle phase gets to stop",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Value: defaults.LifecycleShutdownTimeout,
				Usage: "Time the whole lifecycle context gets to close",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(ctx, cmd.String("config"),
				serializer.WithKubeconfig(cmd.String("kubeconfig")))
			if err != nil {
				return fmt.Errorf("failed to load configuration from %q: %w", cmd.String("config"), err)
			}

			srvCfg := server.NewConfig()
			srvCfg.Name = name
			srvCfg.Version = version
			srvCfg.Address = cmd.String("address")
			srvCfg.Port = int(cmd.Int("port"))

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, serveOptions{
				server:          srvCfg,
				bufferSize:      int(cmd.Int("buffer-size")),
				stopTimeout:     cmd.Duration("stop-timeout"),
				shutdownTimeout: cmd.Duration("shutdown-timeout"),
			})
		},
	}
}

type serveOptions struct {
	server          *server.Config
	bufferSize      int
	stopTimeout     time.Duration
	shutdownTimeout time.Duration
}

// serve runs cfg until ctx is done and closes the lifecycle context.
func serve(ctx context.Context, cfg *config.Config, opts serveOptions) error {
	b := broker.NewMemory(broker.WithBufferSize(opts.bufferSize))
	lc := lifecycle.New(lifecycle.WithStopTimeout(opts.stopTimeout))

	w, err := cfg.Wire(lc, b)
	if err != nil {
		return fmt.Errorf("failed to wire listeners: %w", err)
	}
	if err := lc.Register(SystemdNotifierBeanName, lifecycle.NewSystemdNotifier()); err != nil {
		return err
	}

	if err := lc.Refresh(ctx); err != nil {
		return stderrors.Join(fmt.Errorf("failed to refresh lifecycle context: %w", err),
			lc.Close(context.Background()))
	}
	w.Registry.Start()

	srv := server.New(
		server.WithConfig(opts.server),
		server.WithInventory(w.Registry),
		server.WithPublisher(b),
		server.WithReadiness(lc.Refreshed),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
	defer cancel()

	slog.Info("closing lifecycle context", "timeout", opts.shutdownTimeout.String())
	closeErr := lc.Close(shutdownCtx)

	if err := stderrors.Join(runErr, closeErr); err != nil {
		return err
	}
	slog.Info("stopped", "containers", len(w.Registry.ListenerContainerIDs()))
	return nil
}
