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
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-messaging/pkg/serializer"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		wantFormat serializer.Format
		wantErr    bool
	}{
		{name: "valid yaml format", format: "yaml", wantFormat: serializer.FormatYAML},
		{name: "valid json format", format: "json", wantFormat: serializer.FormatJSON},
		{name: "valid table format", format: "table", wantFormat: serializer.FormatTable},
		{name: "upper case", format: "JSON", wantFormat: serializer.FormatJSON},
		{name: "invalid format xml", format: "xml", wantErr: true},
		{name: "invalid format csv", format: "csv", wantErr: true},
		{name: "empty format", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cli.Command{
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: tt.format,
					},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					got, err := parseOutputFormat(c)
					if (err != nil) != tt.wantErr {
						t.Errorf("parseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
						return nil
					}
					if !tt.wantErr && got != tt.wantFormat {
						t.Errorf("parseOutputFormat() = %v, want %v", got, tt.wantFormat)
					}
					return nil
				},
			}

			if err := cmd.Run(context.Background(), []string{"test"}); err != nil {
				t.Fatalf("failed to run command: %v", err)
			}
		})
	}
}

func TestCommandStructure(t *testing.T) {
	tests := []struct {
		cmd   *cli.Command
		name  string
		flags []string
	}{
		{serveCmd(), "serve", []string{"config", "kubeconfig", "address", "port", "buffer-size", "stop-timeout", "shutdown-timeout"}},
		{validateCmd(), "validate", []string{"config", "output", "format", "kubeconfig"}},
		{handlersCmd(), "handlers", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd.Name != tt.name {
				t.Errorf("Name = %v, want %v", tt.cmd.Name, tt.name)
			}
			if tt.cmd.Usage == "" {
				t.Error("Usage should not be empty")
			}
			if tt.cmd.Description == "" {
				t.Error("Description should not be empty")
			}
			if tt.cmd.Action == nil {
				t.Error("Action should not be nil")
			}
			for _, flagName := range tt.flags {
				found := false
				for _, flag := range tt.cmd.Flags {
					if hasName(flag, flagName) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("required flag %q not found", flagName)
				}
			}
		})
	}
}

func TestRootCmd(t *testing.T) {
	root := newRootCmd()

	if root.Name != name {
		t.Errorf("Name = %v, want %v", root.Name, name)
	}
	want := map[string]bool{"serve": true, "validate": true, "handlers": true}
	for _, sub := range root.Commands {
		delete(want, sub.Name)
	}
	if len(want) != 0 {
		t.Errorf("missing subcommands: %v", want)
	}
}

func TestCommandLister(t *testing.T) {
	commandLister(context.Background(), nil)

	var buf bytes.Buffer
	root := &cli.Command{
		Name:   "root",
		Writer: &buf,
		Commands: []*cli.Command{
			{Name: "visible1", Hidden: false},
			{Name: "hidden", Hidden: true},
			{Name: "visible2", Hidden: false},
		},
	}
	commandLister(context.Background(), root)

	if got, want := buf.String(), "visible1\nvisible2\n"; got != want {
		t.Errorf("commandLister() wrote %q, want %q", got, want)
	}
}

func TestHandlersCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := handlersCmd()
	cmd.Writer = &buf

	if err := cmd.Run(context.Background(), []string{"handlers"}); err != nil {
		t.Fatalf("handlers failed: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "discard\n") || !strings.Contains(got, "log\n") {
		t.Errorf("expected built-in handlers to be listed, got %q", got)
	}
}

func TestKubeClientFor_NonConfigMap(t *testing.T) {
	for _, uri := range []string{"", "out.yaml", "https://example.com/x"} {
		kc, err := kubeClientFor(uri, "")
		if err != nil || kc != nil {
			t.Errorf("kubeClientFor(%q) = %v, %v; want nil, nil", uri, kc, err)
		}
	}
}

func hasName(flag cli.Flag, name string) bool {
	for _, n := range flag.Names() {
		if n == name {
			return true
		}
	}
	return false
}
