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

// Package topology contains the entity model of an emulated Internet.
//
// Networks, nodes and interfaces are reference objects. Once an entity is
// stored in the registry it is shared by every layer and never copied. Nodes
// only grow: interfaces, sessions, pipes and BFD endpoints are added but never
// removed.
//
// Registry kinds used for the entities are exported as constants (KindNet,
// KindRouter, ...). Nodes of an AS live in the scope of the decimal AS
// number, the peering network and route server of an Internet Exchange live
// in the "ix" scope.
package topology

// Registry kinds.
const (
	KindNet         = "net"
	KindRouter      = "rnode"
	KindRouteServer = "rs"
	KindHost        = "hnode"
	KindAS          = "as"
	KindIX          = "ixp"
)
