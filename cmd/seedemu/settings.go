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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	appcfg "github.com/seed-emulator/seedemu/private/app/seedemu/config"
	"github.com/seed-emulator/seedemu/private/config"
)

// Configuration keys. Every key can also be set through the environment,
// e.g. SEEDEMU_STORAGE_CONNECTION for storage.connection.
const (
	keyConfig       = "config"
	keyLogLevel     = "log.level"
	keyTextfile     = "metrics.textfile"
	keyConnection   = "storage.connection"
	keyInternalMesh = "peering.internal_mesh"
	keyLoopbacks    = "peering.loopback_prefix"

	envPrefix = "SEEDEMU"
)

// settings merges the configuration file, the environment and the command
// line flags. Flags take precedence over the environment, which takes
// precedence over the file.
type settings struct {
	viper *viper.Viper
	cfg   appcfg.Config
}

func newSettings() *settings {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &settings{viper: v}
}

// register adds the configuration flags to flags and binds them to the
// configuration keys.
func (s *settings) register(flags *pflag.FlagSet) {
	flags.String(keyConfig, "", "TOML configuration file")
	flags.String(keyLogLevel, "", "Console logging level (debug|info|error)")
	flags.String(keyTextfile, "", "File the Prometheus metrics are written to")
	flags.String(keyConnection, "", "SQLite database the peering state is exported to")
	flags.Bool(keyInternalMesh, true, "Build the internal iBGP full mesh")
	flags.String(keyLoopbacks, "", "Prefix the loopback addresses are assigned from")
	for _, key := range []string{
		keyConfig, keyLogLevel, keyTextfile, keyConnection, keyInternalMesh, keyLoopbacks,
	} {
		if err := s.viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// load builds the configuration and sets up logging.
func (s *settings) load(cmd *cobra.Command) error {
	var cfg appcfg.Config
	if file := s.viper.GetString(keyConfig); file != "" {
		if err := config.LoadFile(file, &cfg); err != nil {
			return err
		}
	}
	if s.viper.IsSet(keyLogLevel) {
		cfg.Logging.Console.Level = s.viper.GetString(keyLogLevel)
	}
	if s.viper.IsSet(keyTextfile) {
		cfg.Metrics.Textfile = s.viper.GetString(keyTextfile)
	}
	if s.viper.IsSet(keyConnection) {
		cfg.Storage.Connection = s.viper.GetString(keyConnection)
	}
	if s.viper.IsSet(keyInternalMesh) {
		mesh := s.viper.GetBool(keyInternalMesh)
		cfg.Peering.InternalMesh = &mesh
	}
	if s.viper.IsSet(keyLoopbacks) {
		cfg.Peering.LoopbackPrefix = s.viper.GetString(keyLoopbacks)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return serrors.Wrap("validating configuration", err)
	}
	if err := log.Setup(cfg.Logging); err != nil {
		return serrors.Wrap("setting up logging", err)
	}
	s.cfg = cfg
	cmd.SetContext(log.CtxWith(cmd.Context(), log.New("cmd", cmd.Name())))
	return nil
}
