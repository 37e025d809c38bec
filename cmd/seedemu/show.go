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
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/seed-emulator/seedemu/pkg/topology"
	"github.com/seed-emulator/seedemu/private/app/command"
	peeringstorage "github.com/seed-emulator/seedemu/private/storage/peering"
)

func newShow(pather command.Pather, s *settings) *cobra.Command {
	var flags struct {
		sessions bool
		noColor  bool
	}
	var cmd = &cobra.Command{
		Use:   "show <topology.yaml>",
		Short: "Display the nodes and sessions of a topology",
		Example: fmt.Sprintf(`  %[1]s show topology.yaml
  %[1]s show topology.yaml --sessions`, pather.CommandPath()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			e, err := renderFile(cmd.Context(), &s.cfg, args[0])
			if err != nil {
				return err
			}
			if flags.sessions {
				showSessions(cmd.OutOrStdout(), e.nodes())
				return nil
			}
			showNodes(cmd.OutOrStdout(), e.nodes(), !flags.noColor)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.sessions, "sessions", false, "List the sessions instead of the nodes")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	return cmd
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

func showNodes(w io.Writer, nodes []*topology.Node, colored bool) {
	roles := map[topology.Role]*color.Color{
		topology.RoleRouter:      color.New(color.FgHiCyan),
		topology.RoleRouteServer: color.New(color.FgYellow),
		topology.RoleHost:        color.New(color.FgHiBlack),
	}
	if !colored {
		for _, c := range roles {
			c.DisableColor()
		}
	}

	table := newTable(w, "NODE", "ROLE", "ASN", "ROUTER ID", "SESSIONS", "BFD")
	for _, n := range nodes {
		routerID := "-"
		if id := n.RouterID(); id.IsValid() {
			routerID = id.String()
		}
		bfd := "-"
		if block, ok := n.BFD(); ok {
			bfd = strconv.Itoa(len(block.Endpoints))
		}
		table.Append([]string{
			n.Key().String(),
			roles[n.Role()].Sprint(n.Role()),
			n.ASN().String(),
			routerID,
			strconv.Itoa(len(n.Sessions())),
			bfd,
		})
	}
	table.Render()
}

func showSessions(w io.Writer, nodes []*topology.Node) {
	table := newTable(w, "NODE", "PROTOCOL", "NAME", "KIND", "LOCAL", "PEER", "RELATIONSHIP")
	for _, n := range nodes {
		for _, s := range n.Sessions() {
			table.Append([]string{
				n.Key().String(),
				string(s.Protocol),
				s.Name,
				s.Kind.String(),
				fmt.Sprintf("%s AS%s", s.LocalAddr, s.LocalASN),
				fmt.Sprintf("%s AS%s", s.PeerAddr, s.PeerASN),
				peeringstorage.RelationshipName(s.Relationship),
			})
		}
	}
	table.Render()
}
