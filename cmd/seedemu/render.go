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
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/seed-emulator/seedemu/pkg/bird"
	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/topology"
	"github.com/seed-emulator/seedemu/private/app/command"
)

// errDiffers is returned by render --diff if a configuration changed.
var errDiffers = errors.New("rendered configuration differs")

func newRender(pather command.Pather, s *settings) *cobra.Command {
	var flags struct {
		node string
		out  string
		diff string
	}
	var cmd = &cobra.Command{
		Use:   "render <topology.yaml>",
		Short: "Render the BIRD configuration of the routers",
		Example: fmt.Sprintf(`  %[1]s render topology.yaml --node 150/rnode/router0
  %[1]s render topology.yaml --out configs
  %[1]s render topology.yaml --diff configs`, pather.CommandPath()),
		Long: `'render' writes the BIRD configuration of every router and route server.
Without --out, the configurations are written to standard output. With --diff,
nothing is written; the configurations are compared against the files in the
given directory and the command fails if any of them differs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.out != "" && flags.diff != "" {
				return serrors.New("--out and --diff are mutually exclusive")
			}
			cmd.SilenceUsage = true
			e, err := renderFile(cmd.Context(), &s.cfg, args[0])
			if err != nil {
				return err
			}
			nodes, err := selectNodes(e.nodes(), flags.node)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch {
			case flags.diff != "":
				return diffConfigs(w, nodes, flags.diff)
			case flags.out != "":
				return writeConfigs(cmd, nodes, flags.out)
			default:
				return printConfigs(w, nodes)
			}
		},
	}
	cmd.Flags().StringVar(&flags.node, "node", "", "Only render the node with this key")
	cmd.Flags().StringVar(&flags.out, "out", "", "Directory the configurations are written to")
	cmd.Flags().StringVar(&flags.diff, "diff", "", "Directory to compare the configurations with")
	return cmd
}

// selectNodes returns the routing nodes, or only the node with key.
func selectNodes(nodes []*topology.Node, key string) ([]*topology.Node, error) {
	var res []*topology.Node
	for _, n := range nodes {
		if n.Role() == topology.RoleHost {
			continue
		}
		if key != "" && n.Key().String() != key {
			continue
		}
		res = append(res, n)
	}
	if key != "" && len(res) == 0 {
		return nil, serrors.New("node not found", "node", key)
	}
	return res, nil
}

// configFile is the file name of the configuration of n.
func configFile(n *topology.Node) string {
	return strings.ReplaceAll(n.Key().String(), "/", "_") + ".conf"
}

func printConfigs(w io.Writer, nodes []*topology.Node) error {
	for i, n := range nodes {
		if i != 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# %s\n", n.Key())
		if err := bird.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

func writeConfigs(cmd *cobra.Command, nodes []*topology.Node, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return serrors.Wrap("creating directory", err, "directory", dir)
	}
	for _, n := range nodes {
		var buf bytes.Buffer
		if err := bird.Render(&buf, n); err != nil {
			return err
		}
		file := filepath.Join(dir, configFile(n))
		if err := os.WriteFile(file, buf.Bytes(), 0644); err != nil {
			return serrors.Wrap("writing configuration", err, "file", file)
		}
	}
	log.FromCtx(cmd.Context()).Info("Wrote configurations", "directory", dir, "nodes", len(nodes))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d configurations to %s\n", len(nodes), dir)
	return nil
}

func diffConfigs(w io.Writer, nodes []*topology.Node, dir string) error {
	dmp := diffmatchpatch.New()
	var differs int
	for _, n := range nodes {
		rendered, err := bird.String(n)
		if err != nil {
			return err
		}
		file := filepath.Join(dir, configFile(n))
		raw, err := os.ReadFile(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return serrors.Wrap("reading configuration", err, "file", file)
		}
		existing := string(raw)
		if existing == rendered {
			continue
		}
		differs++
		fmt.Fprintf(w, "--- %s\n+++ %s\n", file, n.Key())
		patches := dmp.PatchMake(existing, dmp.DiffMain(existing, rendered, false))
		fmt.Fprint(w, dmp.PatchToText(patches))
	}
	if differs != 0 {
		return serrors.Join(errDiffers, nil, "nodes", differs)
	}
	return nil
}
