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

package serrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/seed-emulator/seedemu/pkg/private/serrors"
)

type testErrType struct {
	msg string
}

func (e *testErrType) Error() string {
	return e.msg
}

func TestNew(t *testing.T) {
	err := serrors.New("simple err", "b", 2, "a", 1)
	assert.EqualError(t, err, "simple err {a=1; b=2}")
	assert.ErrorIs(t, err, err)
}

func TestWrap(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		wrapped := serrors.Wrap("msg", err, "someCtx", "someValue")
		assert.ErrorIs(t, wrapped, err)
		assert.ErrorIs(t, wrapped, wrapped)
		assert.EqualError(t, wrapped, "msg {someCtx=someValue}: simple err")
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		wrapped := serrors.Wrap("msg", err, "someCtx", "someValue")
		var errAs *testErrType
		require.True(t, errors.As(wrapped, &errAs))
		assert.Equal(t, err, errAs)
	})
}

func TestJoin(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		cause := serrors.New("cause")
		joined := serrors.Join(sentinel, cause, "asn", 150)
		assert.ErrorIs(t, joined, sentinel)
		assert.ErrorIs(t, joined, cause)
		assert.EqualError(t, joined, "sentinel {asn=150}: cause")
	})
	t.Run("nil cause", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		joined := serrors.Join(sentinel, nil, "ix", 100)
		assert.ErrorIs(t, joined, sentinel)
		assert.EqualError(t, joined, "sentinel {ix=100}")
	})
	t.Run("both nil", func(t *testing.T) {
		assert.NoError(t, serrors.Join(nil, nil))
	})
}

func TestContext(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := serrors.Wrap("outer", serrors.Join(sentinel, nil, "asn", 150, "ix", 100))
	v, ok := serrors.Context(err, "asn")
	require.True(t, ok)
	assert.Equal(t, 150, v)
	_, ok = serrors.Context(err, "missing")
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	var l serrors.List
	assert.NoError(t, l.ToError())

	first := errors.New("first")
	l = append(l, first, errors.New("second"))
	err := l.ToError()
	assert.EqualError(t, err, "[ first; second ]")
	assert.ErrorIs(t, err, first)
}

func TestMarshalLogObject(t *testing.T) {
	err := serrors.Wrap("msg", errors.New("cause"), "k", "v")
	m, ok := err.(zapcore.ObjectMarshaler)
	require.True(t, ok)
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, m.MarshalLogObject(enc))
	assert.Equal(t, "msg", enc.Fields["msg"])
	assert.Equal(t, "cause", enc.Fields["cause"])
	assert.Equal(t, "v", enc.Fields["k"])
}
