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

package config_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seed-emulator/seedemu/private/config"
)

type inner struct {
	Value string `toml:"value,omitempty"`
}

func (i *inner) InitDefaults() {
	if i.Value == "" {
		i.Value = "default"
	}
}

func (i *inner) Validate() error {
	if i.Value == "bad" {
		return errors.New("bad value")
	}
	return nil
}

func (i *inner) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, "\n# The value\nvalue = \"default\"\n")
}

func (i *inner) ConfigName() string { return "inner" }

type outer struct {
	Inner inner `toml:"inner,omitempty"`
}

func (o *outer) InitDefaults() { config.InitAll(&o.Inner) }

func (o *outer) Validate() error { return config.ValidateAll(&o.Inner) }

func (o *outer) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &o.Inner)
}

func TestSampleRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	var cfg outer
	cfg.Sample(&buf, nil, nil)
	assert.Contains(t, buf.String(), "[inner]")

	var decoded outer
	require.NoError(t, config.Decode(buf.Bytes(), &decoded))
	assert.Equal(t, "default", decoded.Inner.Value)
}

// plainSampler is a sampler without a table of its own.
type plainSampler string

func (p plainSampler) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, string(p))
}

func TestWriteSampleIndents(t *testing.T) {
	var buf bytes.Buffer
	config.WriteSample(&buf, config.Path{"seedemu"}, nil,
		&inner{}, plainSampler("\n# Top level\n"))
	expected := "\n[seedemu.inner]\n" +
		"    # The value\n" +
		"    value = \"default\"\n" +
		"\n# Top level\n"
	assert.Equal(t, expected, buf.String())
}

func TestDecodeUnknownField(t *testing.T) {
	var cfg outer
	err := config.Decode([]byte("[inner]\nvalue = \"x\"\nother = 1\n"), &cfg)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	testCases := map[string]struct {
		content   string
		expected  string
		assertErr assert.ErrorAssertionFunc
	}{
		"defaults applied": {
			content:   "",
			expected:  "default",
			assertErr: assert.NoError,
		},
		"explicit value": {
			content:   "[inner]\nvalue = \"x\"\n",
			expected:  "x",
			assertErr: assert.NoError,
		},
		"invalid value": {
			content:   "[inner]\nvalue = \"bad\"\n",
			expected:  "bad",
			assertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(dir, name+".toml")
			require.NoError(t, os.WriteFile(file, []byte(tc.content), 0o644))
			var cfg outer
			tc.assertErr(t, config.Load(file, &cfg))
			assert.Equal(t, tc.expected, cfg.Inner.Value)
		})
	}
	t.Run("missing file", func(t *testing.T) {
		var cfg outer
		assert.Error(t, config.Load(filepath.Join(dir, "nope.toml"), &cfg))
	})
}
