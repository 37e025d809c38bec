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

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// sampleIndent prefixes every line of a table body in a sample.
const sampleIndent = "    "

// CtxMap contains the context for sample generation.
type CtxMap map[string]string

// WriteSample writes the samples of samplers to dst in order. A TableSampler
// is written below a "[path.name]" header with its body indented, any other
// sampler is written as is. It panics if dst cannot be written.
func WriteSample(dst io.Writer, path Path, ctx CtxMap, samplers ...Sampler) {
	for _, s := range samplers {
		ts, ok := s.(TableSampler)
		if !ok {
			s.Sample(dst, path, ctx)
			continue
		}
		p := path.Extend(ts.ConfigName())
		var body bytes.Buffer
		ts.Sample(&body, p, ctx)
		WriteString(dst, "\n["+strings.Join(p, ".")+"]")
		WriteString(dst, indent(body.String()))
	}
}

// WriteString writes s to dst. It panics if dst cannot be written.
func WriteString(dst io.Writer, s string) {
	if _, err := io.WriteString(dst, s); err != nil {
		panic(fmt.Sprintf("writing config sample: %s", err))
	}
}

// indent indents the non-empty lines of s. Every line of the result ends
// with a newline.
func indent(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(s, "\n"), "\n") {
		if line != "" {
			b.WriteString(sampleIndent)
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
