// Package fallback implements generic operator interception: a catch-all
// dispatch handler that applies a representation-changing transform to the
// tensor arguments of an in-flight operator call, forwards the call to the
// next dispatch layer, and reconciles the outputs back into the caller's
// representation. The wrapped kernel never learns the transform exists.
package fallback

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/strand-ml/strand/internal/dispatch"
	"github.com/strand-ml/strand/internal/logging"
	"github.com/strand-ml/strand/internal/telemetry"
	"github.com/strand-ml/strand/internal/tensor"
)

// Contract defines how a single tensor is rewritten on the way into a
// wrapped kernel and reconciled on the way out.
//
// Transform must be total over any tensor the wrapped kernel itself would
// accept, and must not mutate the input as observed by the caller.
// Untransform is the reconciling inverse, expressed in place: it rewrites
// result back into the original representation and writes it into output,
// preserving output's identity for callers that hold aliases to it.
//
// Implementations are stateless or configuration-only. One instance is
// constructed per interception and discarded when the call returns, so no
// synchronization is needed.
type Contract interface {
	Transform(t *tensor.RawTensor) (*tensor.RawTensor, error)
	Untransform(output, result *tensor.RawTensor) error
}

// Interceptor is the catch-all handler for one capability key. Register its
// Handle method as the key's dispatch fallback; operators the transform is a
// no-op for opt out via the registry's fallthrough table instead.
type Interceptor struct {
	key      dispatch.Key
	registry *dispatch.Registry
	contract func() Contract
}

// NewInterceptor builds an interceptor for key that forwards through reg.
// contract is invoked once per intercepted call to produce a fresh Contract.
func NewInterceptor(reg *dispatch.Registry, key dispatch.Key, contract func() Contract) *Interceptor {
	return &Interceptor{
		key:      key,
		registry: reg,
		contract: contract,
	}
}

// Key returns the capability key this interceptor triggers on.
func (ic *Interceptor) Key() dispatch.Key {
	return ic.key
}

// mutablePair tracks the one allowed mutable tensor argument: the caller's
// original tensor and the transformed stand-in the kernel actually writes.
type mutablePair struct {
	original    *tensor.RawTensor
	transformed *tensor.RawTensor
}

// Handle intercepts one operator invocation.
//
// It strips its own key (and everything above it) from the active set,
// transforms every tensor argument in slot order, forwards the call to the
// next dispatch layer, then reconciles mutable outputs against the originals
// recorded on the way in. Freshly allocated outputs carry no aliasing
// obligation and pass through as produced. Slot count and ordering are
// preserved throughout; non-tensor slots are never touched.
func (ic *Interceptor) Handle(op *dispatch.Operator, keys dispatch.KeySet, frame *dispatch.Frame) error {
	reduced := keys.Below(ic.key)
	if reduced.Has(ic.key) {
		return fmt.Errorf("%s: %w", op.Name(), ErrReentrancy)
	}

	keyName := ic.key.String()
	telemetry.Interceptions.WithLabelValues(keyName).Inc()
	log := logging.L().With("key", keyName, "op", op.Name(), "call_id", uuid.NewString())
	log.Debug("intercept", "keys", keys.String(), "reduced", reduced.String())

	schema := op.Schema()
	aliased, write, err := schema.AliasProfile()
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name(), err)
	}
	if aliased && !write {
		// View operator: the output shares storage with the input, so the
		// representation rides along with the view. Forward untouched.
		log.Debug("view operator, forwarding without materializing")
		return ic.registry.Redispatch(op, reduced, frame)
	}

	contract := ic.contract()

	// Transform inputs, strictly in argument order.
	var mutable *mutablePair
	for i := 0; i < frame.NumArgs(); i++ {
		v := frame.Arg(i)
		mutArg := i < len(schema.Args) && schema.Args[i].Mutates

		switch v.Kind() {
		case dispatch.KindTensor:
			orig := v.Tensor()
			transformed, terr := contract.Transform(orig)
			if terr != nil {
				telemetry.InterceptionErrors.WithLabelValues(keyName, "transform").Inc()
				return &TransformError{Op: op.Name(), Arg: i, Err: terr}
			}
			telemetry.Transforms.WithLabelValues(keyName).Inc()
			if mutArg {
				if mutable != nil {
					return fmt.Errorf("%s: more than one mutable tensor argument; "+
						"generic interception supports at most one", op.Name())
				}
				mutable = &mutablePair{original: orig, transformed: transformed}
			}
			frame.SetArg(i, dispatch.TensorValue(transformed))

		case dispatch.KindList:
			if mutArg {
				return fmt.Errorf("%s: mutable tensor lists are not supported; "+
					"materialize the list before the call", op.Name())
			}
			list, lerr := ic.transformList(contract, op.Name(), i, v.List())
			if lerr != nil {
				telemetry.InterceptionErrors.WithLabelValues(keyName, "transform").Inc()
				return lerr
			}
			frame.SetArg(i, dispatch.ListValue(list...))
		}
	}

	if err := ic.registry.Redispatch(op, reduced, frame); err != nil {
		telemetry.InterceptionErrors.WithLabelValues(keyName, "dispatch").Inc()
		return err
	}

	// Reconcile outputs, strictly in result order. Only slots with a
	// recorded original carry an aliasing obligation; the rest were freshly
	// allocated by the kernel and pass through as produced.
	if mutable != nil {
		if frame.NumResults() == 0 || !frame.Result(0).IsTensor() {
			telemetry.InterceptionErrors.WithLabelValues(keyName, "untransform").Inc()
			return &ReconciliationError{
				Op: op.Name(), Result: 0,
				Err: fmt.Errorf("kernel did not return its mutable argument"),
			}
		}
		returned := frame.Result(0).Tensor()
		if !returned.SharesBuffer(mutable.transformed) {
			telemetry.InterceptionErrors.WithLabelValues(keyName, "untransform").Inc()
			return &ReconciliationError{
				Op: op.Name(), Result: 0,
				Err: fmt.Errorf("kernel result does not alias the transformed mutable argument"),
			}
		}
		if uerr := contract.Untransform(mutable.original, returned); uerr != nil {
			telemetry.InterceptionErrors.WithLabelValues(keyName, "untransform").Inc()
			return &ReconciliationError{Op: op.Name(), Result: 0, Err: uerr}
		}
		telemetry.Untransforms.WithLabelValues(keyName).Inc()
		// out= semantics: the output adopts the produced element layout when
		// the contract has not already re-exposed it.
		if !mutable.original.Shape().Equal(returned.Shape()) &&
			mutable.original.NumElements() == returned.NumElements() {
			if serr := mutable.original.SetShape(returned.Shape()); serr != nil {
				return &ReconciliationError{Op: op.Name(), Result: 0, Err: serr}
			}
		}
		frame.SetResult(0, dispatch.TensorValue(mutable.original))
	}

	log.Debug("intercept done", "results", frame.NumResults())
	return nil
}

// transformList transforms tensor elements of a nested argument container,
// preserving element positions. Nested lists are visited recursively.
func (ic *Interceptor) transformList(contract Contract, opName string, arg int, in []dispatch.Value) ([]dispatch.Value, error) {
	out := make([]dispatch.Value, len(in))
	for i, v := range in {
		switch v.Kind() {
		case dispatch.KindTensor:
			transformed, err := contract.Transform(v.Tensor())
			if err != nil {
				return nil, &TransformError{Op: opName, Arg: arg, Err: err}
			}
			telemetry.Transforms.WithLabelValues(ic.key.String()).Inc()
			out[i] = dispatch.TensorValue(transformed)
		case dispatch.KindList:
			nested, err := ic.transformList(contract, opName, arg, v.List())
			if err != nil {
				return nil, err
			}
			out[i] = dispatch.ListValue(nested...)
		default:
			out[i] = v
		}
	}
	return out, nil
}
