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

package log_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/log/testlog"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg log.Config
	cfg.Sample(&sample, nil, nil)

	var decoded log.Config
	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().
		Decode(&decoded)
	require.NoError(t, err)
	assert.Equal(t, "info", decoded.Console.Level)
	assert.Equal(t, "human", decoded.Console.Format)
	assert.NoError(t, decoded.Validate())
}

func TestConfigValidate(t *testing.T) {
	testCases := map[string]struct {
		Console   log.ConsoleConfig
		assertErr assert.ErrorAssertionFunc
	}{
		"defaults": {
			assertErr: assert.NoError,
		},
		"debug json": {
			Console:   log.ConsoleConfig{Level: "debug", Format: "json"},
			assertErr: assert.NoError,
		},
		"bad level": {
			Console:   log.ConsoleConfig{Level: "loud"},
			assertErr: assert.Error,
		},
		"bad format": {
			Console:   log.ConsoleConfig{Format: "xml"},
			assertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := log.Config{Console: tc.Console}
			cfg.InitDefaults()
			tc.assertErr(t, cfg.Validate())
		})
	}
}

func TestFromCtx(t *testing.T) {
	t.Run("empty context returns root", func(t *testing.T) {
		assert.NotNil(t, log.FromCtx(context.Background()))
	})
	t.Run("attached logger is returned", func(t *testing.T) {
		l, logs := testlog.NewObserved(log.DebugLevel)
		ctx := log.CtxWith(context.Background(), l)
		log.FromCtx(ctx).Info("hello", "k", "v")
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "hello", entry.Message)
		assert.Equal(t, "v", entry.ContextMap()["k"])
	})
	t.Run("labels are added", func(t *testing.T) {
		l, logs := testlog.NewObserved(log.DebugLevel)
		ctx := log.CtxWith(context.Background(), l)
		ctx, _ = log.WithLabels(ctx, "layer", "Mbgp")
		log.FromCtx(ctx).Error("boom")
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "Mbgp", logs.All()[0].ContextMap()["layer"])
	})
}
