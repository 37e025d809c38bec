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

// seedemu builds emulated internet topologies. It reads a topology file,
// synthesizes the peering sessions, and renders the routing daemon
// configuration of every node.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/private/app/command"
	appcfg "github.com/seed-emulator/seedemu/private/app/seedemu/config"
)

func main() {
	defer log.HandlePanic()
	executable := filepath.Base(os.Args[0])
	cmd := newRootCommand(executable)
	err := cmd.Execute()
	log.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCommand(executable string) *cobra.Command {
	s := newSettings()
	cmd := &cobra.Command{
		Use:           executable,
		Short:         "SEED emulator topology builder",
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.load(cmd)
		},
	}
	s.register(cmd.PersistentFlags())
	cmd.AddCommand(
		newBuild(cmd, s),
		newShow(cmd, s),
		newRender(cmd, s),
		command.NewSample(cmd, &appcfg.Config{}),
		command.NewVersion(cmd),
		command.NewGendocs(cmd),
	)
	return cmd
}
