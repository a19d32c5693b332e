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
	"os"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-messaging/pkg/listener/handler"
)

func handlersCmd() *cli.Command {
	return &cli.Command{
		Name:  "handlers",
		Usage: "List the message handlers endpoints can reference",
		Description: `Print the names of the registered message handlers, one per line.
An endpoint selects its handler by name with the "handler" key.`,
		Action: func(_ context.Context, cmd *cli.Command) error {
			var w io.Writer = os.Stdout
			if cmd.Writer != nil {
				w = cmd.Writer
			}
			for _, n := range handler.Names() {
				if _, err := fmt.Fprintln(w, n); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
