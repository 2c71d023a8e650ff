package dispatch

import (
	"fmt"

	"github.com/strand-ml/strand/internal/tensor"
)

// Kind tags the variant held by a Value.
type Kind int

// Value variants.
const (
	KindScalar Kind = iota // any non-tensor payload (numbers, shapes, strings)
	KindTensor
	KindList // ordered container; elements may themselves be tensors
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindTensor:
		return "tensor"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is one dynamically-typed slot in a call frame: a tensor, an opaque
// scalar, or an ordered list of Values. The zero Value is a nil scalar.
type Value struct {
	kind   Kind
	tensor *tensor.RawTensor
	scalar any
	list   []Value
}

// TensorValue wraps a tensor.
func TensorValue(t *tensor.RawTensor) Value {
	return Value{kind: KindTensor, tensor: t}
}

// ScalarValue wraps any non-tensor payload.
func ScalarValue(v any) Value {
	return Value{kind: KindScalar, scalar: v}
}

// ListValue wraps an ordered sequence of Values.
func ListValue(vals ...Value) Value {
	return Value{kind: KindList, list: vals}
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsTensor reports whether the value holds a tensor.
func (v Value) IsTensor() bool {
	return v.kind == KindTensor
}

// Tensor returns the held tensor.
// Panics if the value is not a tensor slot.
func (v Value) Tensor() *tensor.RawTensor {
	if v.kind != KindTensor {
		panic(fmt.Sprintf("value is %s, not tensor", v.kind))
	}
	return v.tensor
}

// Scalar returns the held scalar payload.
// Panics if the value is not a scalar slot.
func (v Value) Scalar() any {
	if v.kind != KindScalar {
		panic(fmt.Sprintf("value is %s, not scalar", v.kind))
	}
	return v.scalar
}

// List returns the held list. The returned slice aliases the value's
// storage; callers that mutate elements mutate the slot.
// Panics if the value is not a list slot.
func (v Value) List() []Value {
	if v.kind != KindList {
		panic(fmt.Sprintf("value is %s, not list", v.kind))
	}
	return v.list
}

// Frame is the mutable call frame of one operator invocation: an ordered
// argument list plus an ordered result list, shared by the caller and every
// dispatch layer for the duration of the call. Layers may overwrite slots
// but must preserve slot count and ordering, since the next layer resolves
// arguments positionally. A Frame is owned by a single goroutine for the
// duration of one top-level call.
type Frame struct {
	args    []Value
	results []Value
}

// NewFrame builds a frame from the given argument slots.
func NewFrame(args ...Value) *Frame {
	return &Frame{args: args}
}

// NumArgs returns the number of argument slots.
func (f *Frame) NumArgs() int {
	return len(f.args)
}

// Arg returns argument slot i.
func (f *Frame) Arg(i int) Value {
	return f.args[i]
}

// SetArg overwrites argument slot i.
func (f *Frame) SetArg(i int, v Value) {
	f.args[i] = v
}

// NumResults returns the number of result slots.
func (f *Frame) NumResults() int {
	return len(f.results)
}

// Result returns result slot i.
func (f *Frame) Result(i int) Value {
	return f.results[i]
}

// SetResult overwrites result slot i.
func (f *Frame) SetResult(i int, v Value) {
	f.results[i] = v
}

// SetResults replaces the frame's result slots. Kernels call this once,
// after which interception layers may rewrite individual slots in place.
func (f *Frame) SetResults(vals ...Value) {
	f.results = vals
}

// Results returns the result slots. The slice aliases the frame.
func (f *Frame) Results() []Value {
	return f.results
}
