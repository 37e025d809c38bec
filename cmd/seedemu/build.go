// Copyright 2025 ETH Zurich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seed-emulator/seedemu/private/app/command"
)

func newBuild(pather command.Pather, s *settings) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "build <topology.yaml>",
		Short: "Build a topology and export the peering state",
		Example: fmt.Sprintf(`  %[1]s build topology.yaml
  %[1]s build topology.yaml --storage.connection peering.db
  SEEDEMU_METRICS_TEXTFILE=seedemu.prom %[1]s build topology.yaml`, pather.CommandPath()),
		Long: `'build' reads the topology file, synthesizes the peering sessions of the
Ebgp and Mbgp layers, and exports the intents and sessions to the configured
SQLite database and the metrics to the configured textfile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()
			e, err := renderFile(ctx, &s.cfg, args[0])
			if err != nil {
				return err
			}
			if err := e.export(ctx, &s.cfg); err != nil {
				return err
			}
			var sessions int
			nodes := e.nodes()
			for _, n := range nodes {
				sessions += len(n.Sessions())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Built %d nodes with %d sessions\n",
				len(nodes), sessions)
			return nil
		},
	}
	return cmd
}
