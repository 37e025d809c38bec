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

package db

import (
	"errors"

	"github.com/seed-emulator/seedemu/pkg/private/serrors"
)

// Error families of the storage packages. Every error returned by a storage
// operation matches exactly one family with errors.Is.
var (
	// ErrInvalidInputData indicates that the caller tried to store data that
	// cannot be represented, e.g. a session without addresses.
	ErrInvalidInputData = errors.New("db: input data invalid")
	// ErrDataInvalid indicates that stored data cannot be decoded.
	ErrDataInvalid = errors.New("db: db data invalid")
	ErrReadFailed  = errors.New("db: read failed")
	ErrWriteFailed = errors.New("db: write failed")
	// ErrTx indicates that a transaction could not be started or committed.
	ErrTx = errors.New("db: transaction error")
)

// opError joins family and cause. op names the failed operation.
func opError(family error, op string, cause error, errCtx []any) error {
	return serrors.Join(family, cause, append([]any{"op", op}, errCtx...)...)
}

func NewTxError(op string, err error, errCtx ...any) error {
	return opError(ErrTx, op, err, errCtx)
}

func NewInputDataError(op string, err error, errCtx ...any) error {
	return opError(ErrInvalidInputData, op, err, errCtx)
}

func NewDataError(op string, err error, errCtx ...any) error {
	return opError(ErrDataInvalid, op, err, errCtx)
}

func NewReadError(op string, err error, errCtx ...any) error {
	return opError(ErrReadFailed, op, err, errCtx)
}

func NewWriteError(op string, err error, errCtx ...any) error {
	return opError(ErrWriteFailed, op, err, errCtx)
}
