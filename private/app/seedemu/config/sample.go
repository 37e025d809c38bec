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

package config

const metricsSample = `
# File the Prometheus metrics are written to after a build, in the text
# format of the node exporter textfile collector. Empty disables the export.
# (default "")
textfile = "/var/lib/node_exporter/seedemu.prom"
`

const storageSample = `
# Path of the SQLite database the peering intents and the synthesized
# sessions are exported to. Empty disables the export. (default "")
connection = "/var/lib/seedemu/peering.db"
`

const peeringSample = `
# Build the internal iBGP full mesh between the routers of every AS.
# (default true)
internal_mesh = true

# Prefix the router loopback addresses are assigned from.
# (default "10.0.0.0/16")
loopback_prefix = "10.0.0.0/16"
`
