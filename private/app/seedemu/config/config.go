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

// Package config contains the configuration of the seedemu command line tool.
package config

import (
	"io"
	"net/netip"
	"strings"

	"github.com/seed-emulator/seedemu/pkg/layers/routing"
	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/private/config"
)

var _ config.Config = (*Config)(nil)

// Config is the seedemu configuration.
type Config struct {
	Logging log.Config    `toml:"log,omitempty"`
	Metrics MetricsConfig `toml:"metrics,omitempty"`
	Storage StorageConfig `toml:"storage,omitempty"`
	Peering PeeringConfig `toml:"peering,omitempty"`
}

// InitDefaults initializes the default values for all parts of the config.
func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Storage,
		&cfg.Peering,
	)
}

// Validate validates all parts of the config.
func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Storage,
		&cfg.Peering,
	)
}

// Sample generates a sample config file for seedemu.
func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, nil,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Storage,
		&cfg.Peering,
	)
}

func (cfg *Config) ConfigName() string {
	return "seedemu_config"
}

var _ config.Config = (*MetricsConfig)(nil)

// MetricsConfig configures the metrics export.
type MetricsConfig struct {
	config.NoDefaulter
	config.NoValidator
	// Textfile is the file the metrics are written to after a build. Empty
	// disables the export.
	Textfile string `toml:"textfile,omitempty"`
}

func (cfg *MetricsConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, metricsSample)
}

func (cfg *MetricsConfig) ConfigName() string {
	return "metrics"
}

var _ config.Config = (*StorageConfig)(nil)

// StorageConfig configures the SQLite export of intents and sessions.
type StorageConfig struct {
	config.NoDefaulter
	// Connection is the path of the SQLite database. Empty disables the
	// export.
	Connection string `toml:"connection,omitempty"`
}

func (cfg *StorageConfig) Validate() error {
	if strings.Contains(cfg.Connection, ":memory:") {
		return serrors.New("in-memory database not supported", "connection", cfg.Connection)
	}
	return nil
}

func (cfg *StorageConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, storageSample)
}

func (cfg *StorageConfig) ConfigName() string {
	return "storage"
}

var _ config.Config = (*PeeringConfig)(nil)

// PeeringConfig configures the peering layers built by the tool.
type PeeringConfig struct {
	// InternalMesh enables the internal iBGP full mesh. Defaults to true.
	InternalMesh *bool `toml:"internal_mesh,omitempty"`
	// LoopbackPrefix is the prefix loopback addresses are assigned from.
	LoopbackPrefix string `toml:"loopback_prefix,omitempty"`
}

func (cfg *PeeringConfig) InitDefaults() {
	if cfg.InternalMesh == nil {
		mesh := true
		cfg.InternalMesh = &mesh
	}
	if cfg.LoopbackPrefix == "" {
		cfg.LoopbackPrefix = routing.DefaultLoopbackPrefix.String()
	}
}

func (cfg *PeeringConfig) Validate() error {
	p, err := netip.ParsePrefix(cfg.LoopbackPrefix)
	if err != nil {
		return serrors.Wrap("parsing loopback prefix", err, "prefix", cfg.LoopbackPrefix)
	}
	if !p.Addr().Is4() {
		return serrors.New("loopback prefix must be IPv4", "prefix", p)
	}
	return nil
}

// Mesh reports whether the internal mesh is enabled.
func (cfg *PeeringConfig) Mesh() bool {
	return cfg.InternalMesh == nil || *cfg.InternalMesh
}

// Loopbacks returns the parsed loopback prefix. Call it on a validated
// config.
func (cfg *PeeringConfig) Loopbacks() netip.Prefix {
	p, err := netip.ParsePrefix(cfg.LoopbackPrefix)
	if err != nil {
		return routing.DefaultLoopbackPrefix
	}
	return p.Masked()
}

func (cfg *PeeringConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, peeringSample)
}

func (cfg *PeeringConfig) ConfigName() string {
	return "peering"
}
