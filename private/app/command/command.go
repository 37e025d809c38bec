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

// Package command contains cobra commands shared by the seedemu tools.
package command

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/seed-emulator/seedemu/private/config"
)

// Pather returns the path of a command, e.g. "seedemu render".
type Pather interface {
	CommandPath() string
}

// Version is the version of the tool. It is set at link time.
var Version = "dev"

const sampleExample = `  %[1]s sample > seedemu.toml
  %[1]s --config seedemu.toml build topology.yaml`

// NewSample creates a command that prints the sample configuration of cfg.
func NewSample(pather Pather, cfg config.Sampler) *cobra.Command {
	return &cobra.Command{
		Use:     "sample",
		Short:   "Display a sample configuration file",
		Example: fmt.Sprintf(sampleExample, pather.CommandPath()),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Sample(cmd.OutOrStdout(), nil, nil)
			return nil
		},
	}
}

// NewVersion creates a command that prints the version.
func NewVersion(pather Pather) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s %s/%s\n",
				pather.CommandPath(), Version, runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
