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
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-messaging/pkg/k8s/client"
	"github.com/NVIDIA/cloud-native-messaging/pkg/logging"
	"github.com/NVIDIA/cloud-native-messaging/pkg/serializer"
)

const (
	name           = "cnm"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

var (
	configFlag = &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Required: true,
		Sources:  cli.EnvVars("CNM_CONFIG"),
		Usage: `Path/URI to the listener configuration.
	Supports: file paths, HTTP/HTTPS URLs, or ConfigMap URIs (cm://namespace/name).`,
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path or ConfigMap URI (cm://namespace/name); stdout when empty",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   "Output format: " + strings.Join(serializer.SupportedFormats(), ", "),
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:    "kubeconfig",
		Aliases: []string{"k"},
		Sources: cli.EnvVars("KUBECONFIG"),
		Usage:   "Path to kubeconfig used for cm:// sources and outputs (default: in-cluster or ~/.kube/config)",
	}
)

// Execute runs the root command with os.Args. It is called by main.main().
func Execute() {
	if err := newRootCmd().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Usage:                 "cnm - Cloud Native Messaging listener runtime",
		Description: `Runs message listener endpoints declared in a configuration file inside a
managed lifecycle.

serve    - starts the listener containers and the HTTP API.
validate - loads and validates a configuration and prints the resolved endpoints.
handlers - lists the message handlers endpoints can reference.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars(logging.EnvLogLevel),
				Usage:   "Log level (debug, info, warn, error)",
			},
		},
		Before:        initLogger,
		ShellComplete: commandLister,
		Commands: []*cli.Command{
			serveCmd(),
			validateCmd(),
			handlersCmd(),
		},
	}
}

// initLogger configures slog after flags are parsed so that --log-level
// takes effect before any command executes.
func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := cmd.String("log-level")
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
	return ctx, nil
}

// commandLister prints the visible subcommands of cmd.
func commandLister(_ context.Context, cmd *cli.Command) {
	if cmd == nil {
		return
	}
	var w io.Writer = os.Stdout
	if cmd.Writer != nil {
		w = cmd.Writer
	}
	for _, sub := range cmd.Commands {
		if sub.Hidden {
			continue
		}
		fmt.Fprintln(w, sub.Name)
	}
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	return serializer.ParseFormat(cmd.String("format"))
}

// kubeClientFor returns a Kubernetes client when uri needs one.
func kubeClientFor(uri, kubeconfig string) (client.Interface, error) {
	if !strings.HasPrefix(strings.TrimSpace(uri), serializer.ConfigMapURIScheme) {
		return nil, nil
	}
	kc, _, err := client.New(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client for %q: %w", uri, err)
	}
	return kc, nil
}
