package fallback

import (
	"fmt"

	"github.com/strand-ml/strand/internal/dispatch"
	"github.com/strand-ml/strand/internal/logging"
	"github.com/strand-ml/strand/internal/telemetry"
	"github.com/strand-ml/strand/internal/tensor"
)

// Composite-view layouts. The contract hands kernels a flat view and
// re-exposes reconciled outputs the same way. The fixed 4-element/2x2 pair
// is the contract's shipped policy, not a law of the mechanism; a contract
// deriving layouts from tensor metadata plugs in the same way.
var (
	compositeFlat   = tensor.Shape{4}
	compositeSquare = tensor.Shape{2, 2}
)

// CompositeViewContract rewrites tensors to a flat composite layout before
// a kernel runs and reconciles results back through the square layout.
type CompositeViewContract struct{}

// NewCompositeViewContract returns the contract for the CompositeView key.
func NewCompositeViewContract() *CompositeViewContract {
	return &CompositeViewContract{}
}

// Transform exposes t flattened to the composite layout.
// The returned tensor is a view; t itself is untouched.
func (c *CompositeViewContract) Transform(t *tensor.RawTensor) (*tensor.RawTensor, error) {
	logging.L().Debug("composite-view transform", "tensor", t.String())
	flat, err := t.Reshape(compositeFlat)
	if err != nil {
		return nil, fmt.Errorf("flatten to %v: %w", compositeFlat, err)
	}
	return flat, nil
}

// Untransform reconciles a produced result into the caller's output tensor:
// the result is read back through the square layout, copied into output in
// place, and output is re-exposed flattened. Output keeps its identity, so
// aliases held by the caller stay valid.
func (c *CompositeViewContract) Untransform(output, result *tensor.RawTensor) error {
	logging.L().Debug("composite-view untransform",
		"result", result.String(), "output", output.String())
	square, err := result.Reshape(compositeSquare)
	if err != nil {
		return fmt.Errorf("read result as %v: %w", compositeSquare, err)
	}
	defer square.Release()

	if err := output.CopyFrom(square); err != nil {
		return fmt.Errorf("write back output: %w", err)
	}
	if err := output.SetShape(compositeFlat); err != nil {
		return fmt.Errorf("re-expose output as %v: %w", compositeFlat, err)
	}
	return nil
}

// compositeViewFallthrough names the operators the composite-view transform
// is an identity for: cloning and copying preserve representation, view
// operators carry it along with their storage, and construction or metadata
// queries never look at element layout. These resolve straight past the
// CompositeView key with no per-call cost.
var compositeViewFallthrough = []string{
	"clone",
	"copy_",
	"view",
	"reshape",
	"squeeze",
	"unsqueeze",
	"transpose",
	"empty_like",
	"zeros_like",
	"ones_like",
	"shape_of",
	"numel",
}

// RegisterCompositeView installs the composite-view interception on reg:
// the catch-all fallback for the CompositeView key plus the fallthrough
// declarations for operators the transform is a no-op for. Must run before
// the registry is frozen.
func RegisterCompositeView(reg *dispatch.Registry) (*Interceptor, error) {
	ic := NewInterceptor(reg, dispatch.KeyCompositeView, func() Contract {
		return NewCompositeViewContract()
	})
	if err := reg.SetFallback(dispatch.KeyCompositeView, ic.Handle); err != nil {
		return nil, fmt.Errorf("register composite-view fallback: %w", err)
	}
	if err := reg.SetFallthrough(dispatch.KeyCompositeView, compositeViewFallthrough...); err != nil {
		return nil, fmt.Errorf("register composite-view fallthrough: %w", err)
	}
	if err := reg.OnFallthrough(func(k dispatch.Key, opName string) {
		telemetry.FallthroughHits.WithLabelValues(k.String()).Inc()
	}); err != nil {
		return nil, fmt.Errorf("install fallthrough observer: %w", err)
	}
	return ic, nil
}
