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
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-messaging/pkg/config"
	"github.com/NVIDIA/cloud-native-messaging/pkg/header"
	"github.com/NVIDIA/cloud-native-messaging/pkg/serializer"
)

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "validate",
		EnableShellCompletion: true,
		Usage:                 "Validate a listener configuration",
		Description: `Load a listener configuration, apply defaults and report every problem
found. A valid configuration is written out with its defaults resolved.

The table format prints one row per endpoint with its effective factory
settings. The yaml and json formats print the resolved configuration, which
can be loaded again with --config.

# Examples

Check a configuration file:
  cnm validate --config listeners.yaml --format table

Publish a resolved configuration to a ConfigMap:
  cnm validate --config listeners.yaml --output cm://messaging/cnm-listeners`,
		Flags: []cli.Flag{
			configFlag,
			outputFlag,
			formatFlag,
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			uri := cmd.String("config")
			kubeconfig := cmd.String("kubeconfig")

			slog.Info("loading configuration", "uri", uri)

			cfg, err := config.Load(ctx, uri, serializer.WithKubeconfig(kubeconfig))
			if err != nil {
				return fmt.Errorf("invalid configuration %q: %w", uri, err)
			}

			output := cmd.String("output")
			kc, err := kubeClientFor(output, kubeconfig)
			if err != nil {
				return err
			}

			ser := serializer.NewFileWriterOrStdout(outFormat, output, kc)
			defer func() {
				if closer, ok := ser.(serializer.Closer); ok {
					if err := closer.Close(); err != nil {
						slog.Warn("failed to close output", "error", err)
					}
				}
			}()

			slog.Info("configuration is valid",
				"factories", len(cfg.Factories),
				"endpoints", len(cfg.Endpoints))

			return ser.Serialize(ctx, renderable(cfg, outFormat))
		},
	}
}

// renderable picks what validate prints for format. Configurations are
// stamped with a header so the output identifies itself.
func renderable(cfg *config.Config, format serializer.Format) any {
	if format == serializer.FormatTable {
		return cfg.Summary()
	}
	cfg.Header.Init(header.KindListenerConfiguration, version)
	return cfg
}
