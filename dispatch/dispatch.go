// Copyright 2025 Strand Runtime. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dispatch provides the public API for capability-keyed operator
// dispatch.
//
// Operators are registered once at startup with a positional schema, bound
// to kernels per dispatch key, and invoked through a Registry with a call
// frame and an active KeySet. Capability layers hook in either as per-key
// catch-all fallbacks or are skipped per operator via the fallthrough table.
//
// Example:
//
//	reg := dispatch.NewRegistry()
//	op, _ := reg.Register("add", dispatch.Schema{
//		Args:    []dispatch.Arg{{Name: "self"}, {Name: "other"}},
//		Returns: 1,
//	})
//	_ = reg.Kernel("add", dispatch.KeyBackend, addKernel)
//	reg.Freeze()
//
//	frame := dispatch.NewFrame(dispatch.TensorValue(a), dispatch.TensorValue(b))
//	err := reg.Call(op, dispatch.NewKeySet(dispatch.KeyBackend), frame)
package dispatch

import (
	"github.com/strand-ml/strand/internal/dispatch"
	"github.com/strand-ml/strand/internal/tensor"
)

// RawTensor is the tensor value type carried in frame slots.
type RawTensor = tensor.RawTensor

// Key identifies one dispatch capability.
type Key = dispatch.Key

// Dispatch keys, lowest priority first.
const (
	KeyBackend       Key = dispatch.KeyBackend
	KeyAutograd      Key = dispatch.KeyAutograd
	KeyCompositeView Key = dispatch.KeyCompositeView
)

// KeySet is an unordered set of dispatch keys.
type KeySet = dispatch.KeySet

// Kind tags the variant held by a Value.
type Kind = dispatch.Kind

// Value variants.
const (
	KindScalar Kind = dispatch.KindScalar
	KindTensor Kind = dispatch.KindTensor
	KindList   Kind = dispatch.KindList
)

// Value is one dynamically-typed call frame slot.
type Value = dispatch.Value

// Frame is the mutable call frame of one operator invocation.
type Frame = dispatch.Frame

// Arg describes one positional operator argument.
type Arg = dispatch.Arg

// Schema is an operator's positional argument schema.
type Schema = dispatch.Schema

// Operator identifies one registered operator.
type Operator = dispatch.Operator

// Kernel executes one operator for one dispatch key.
type Kernel = dispatch.Kernel

// Registry holds the operator table, fallbacks, and fallthrough
// declarations.
type Registry = dispatch.Registry

// Registry errors.
var (
	ErrFrozen   = dispatch.ErrFrozen
	ErrNoKernel = dispatch.ErrNoKernel
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return dispatch.NewRegistry()
}

// NewKeySet builds a set from the given keys.
func NewKeySet(keys ...Key) KeySet {
	return dispatch.NewKeySet(keys...)
}

// KeyFromString parses a key name as used in capability manifests.
func KeyFromString(s string) (Key, error) {
	return dispatch.KeyFromString(s)
}

// NewFrame builds a frame from the given argument slots.
func NewFrame(args ...Value) *Frame {
	return dispatch.NewFrame(args...)
}

// TensorValue wraps a tensor.
func TensorValue(t *RawTensor) Value {
	return dispatch.TensorValue(t)
}

// ScalarValue wraps any non-tensor payload.
func ScalarValue(v any) Value {
	return dispatch.ScalarValue(v)
}

// ListValue wraps an ordered sequence of Values.
func ListValue(vals ...Value) Value {
	return dispatch.ListValue(vals...)
}
