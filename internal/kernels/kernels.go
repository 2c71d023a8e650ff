// Package kernels provides the reference CPU kernels registered at the
// Backend dispatch key. They are deliberately naive: correctness anchors
// for the dispatch and interception layers, not tuned compute.
package kernels

import (
	"fmt"

	"github.com/strand-ml/strand/internal/dispatch"
	"github.com/strand-ml/strand/internal/parallel"
	"github.com/strand-ml/strand/internal/tensor"
)

// loopCfg sizes the element-wise loops; large tensors fan out across CPUs.
var loopCfg = parallel.DefaultConfig()

// Register installs the operator schemas and their Backend-key kernels
// into reg. Must run before the registry is frozen.
func Register(reg *dispatch.Registry) error {
	defs := []struct {
		name   string
		schema dispatch.Schema
		kernel dispatch.Kernel
	}{
		{
			name: "clone",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}},
				Returns: 1,
			},
			kernel: cloneKernel,
		},
		{
			name: "copy_",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self", Alias: true, Mutates: true}, {Name: "src"}},
				Returns: 1,
			},
			kernel: copyKernel,
		},
		{
			name: "view",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self", Alias: true}, {Name: "shape"}},
				Returns: 1,
			},
			kernel: viewKernel,
		},
		{
			name: "reshape",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self", Alias: true}, {Name: "shape"}},
				Returns: 1,
			},
			kernel: viewKernel,
		},
		{
			name: "squeeze",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self", Alias: true}, {Name: "dim"}},
				Returns: 1,
			},
			kernel: squeezeKernel,
		},
		{
			name: "unsqueeze",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self", Alias: true}, {Name: "dim"}},
				Returns: 1,
			},
			kernel: unsqueezeKernel,
		},
		{
			name: "transpose",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}},
				Returns: 1,
			},
			kernel: transposeKernel,
		},
		{
			name: "empty_like",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}},
				Returns: 1,
			},
			kernel: emptyLikeKernel,
		},
		{
			name: "zeros_like",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}},
				Returns: 1,
			},
			kernel: emptyLikeKernel, // zero-initialized allocation
		},
		{
			name: "ones_like",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}},
				Returns: 1,
			},
			kernel: onesLikeKernel,
		},
		{
			name: "shape_of",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}},
				Returns: 1,
			},
			kernel: shapeOfKernel,
		},
		{
			name: "numel",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}},
				Returns: 1,
			},
			kernel: numelKernel,
		},
		{
			name: "add",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}, {Name: "other"}},
				Returns: 1,
			},
			kernel: addKernel,
		},
		{
			name: "mul",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}, {Name: "other"}},
				Returns: 1,
			},
			kernel: mulKernel,
		},
		{
			name: "neg",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}},
				Returns: 1,
			},
			kernel: negKernel,
		},
		{
			name: "scale",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self"}, {Name: "factor"}},
				Returns: 1,
			},
			kernel: scaleKernel,
		},
		{
			name: "add_",
			schema: dispatch.Schema{
				Args:    []dispatch.Arg{{Name: "self", Alias: true, Mutates: true}, {Name: "other"}},
				Returns: 1,
			},
			kernel: addInplaceKernel,
		},
	}

	for _, def := range defs {
		if _, err := reg.Register(def.name, def.schema); err != nil {
			return fmt.Errorf("register %s: %w", def.name, err)
		}
		if err := reg.Kernel(def.name, dispatch.KeyBackend, def.kernel); err != nil {
			return fmt.Errorf("bind %s kernel: %w", def.name, err)
		}
	}
	return nil
}

func argTensor(op *dispatch.Operator, frame *dispatch.Frame, i int) (*tensor.RawTensor, error) {
	if i >= frame.NumArgs() {
		return nil, fmt.Errorf("%s: missing argument %d", op.Name(), i)
	}
	v := frame.Arg(i)
	if !v.IsTensor() {
		return nil, fmt.Errorf("%s: argument %d is %s, want tensor", op.Name(), i, v.Kind())
	}
	return v.Tensor(), nil
}

func cloneKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	out, err := t.Materialize()
	if err != nil {
		return fmt.Errorf("clone: %w", err)
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func copyKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	dst, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	src, err := argTensor(op, frame, 1)
	if err != nil {
		return err
	}
	if err := dst.CopyFrom(src); err != nil {
		return fmt.Errorf("copy_: %w", err)
	}
	frame.SetResults(dispatch.TensorValue(dst))
	return nil
}

func viewKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	shape, ok := frame.Arg(1).Scalar().(tensor.Shape)
	if !ok {
		return fmt.Errorf("%s: argument 1 must be a shape", op.Name())
	}
	out, err := t.Reshape(shape)
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name(), err)
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func squeezeKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	dim, ok := frame.Arg(1).Scalar().(int)
	if !ok {
		return fmt.Errorf("squeeze: argument 1 must be an int dim")
	}
	shape := t.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		return fmt.Errorf("squeeze: dim %d out of range for shape %v", dim, shape)
	}
	if shape[dim] != 1 {
		return fmt.Errorf("squeeze: dim %d has size %d, want 1", dim, shape[dim])
	}
	newShape := append(shape[:dim:dim].Clone(), shape[dim+1:]...)
	out, err := t.Reshape(newShape)
	if err != nil {
		return fmt.Errorf("squeeze: %w", err)
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func unsqueezeKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	dim, ok := frame.Arg(1).Scalar().(int)
	if !ok {
		return fmt.Errorf("unsqueeze: argument 1 must be an int dim")
	}
	shape := t.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		return fmt.Errorf("unsqueeze: dim %d out of range for shape %v", dim, shape)
	}
	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	out, err := t.Reshape(newShape)
	if err != nil {
		return fmt.Errorf("unsqueeze: %w", err)
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func transposeKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	shape := t.Shape()
	if len(shape) != 2 {
		return fmt.Errorf("transpose: want 2D tensor, got shape %v", shape)
	}
	rows, cols := shape[0], shape[1]
	out, err := tensor.NewRaw(tensor.Shape{cols, rows}, t.DType(), t.Device())
	if err != nil {
		return fmt.Errorf("transpose: %w", err)
	}
	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), out.AsFloat32()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				dst[j*rows+i] = src[i*cols+j]
			}
		}
	case tensor.Float64:
		src, dst := t.AsFloat64(), out.AsFloat64()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				dst[j*rows+i] = src[i*cols+j]
			}
		}
	default:
		return fmt.Errorf("transpose: unsupported dtype %v", t.DType())
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func emptyLikeKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	out, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name(), err)
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func onesLikeKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	out, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		return fmt.Errorf("ones_like: %w", err)
	}
	switch t.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	case tensor.Int32:
		data := out.AsInt32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Int64:
		data := out.AsInt64()
		for i := range data {
			data[i] = 1
		}
	default:
		return fmt.Errorf("ones_like: unsupported dtype %v", t.DType())
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func shapeOfKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	frame.SetResults(dispatch.ScalarValue(t.Shape().Clone()))
	return nil
}

func numelKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	frame.SetResults(dispatch.ScalarValue(t.NumElements()))
	return nil
}

func addKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	return binaryKernel(op, frame,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

func mulKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	return binaryKernel(op, frame,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

func binaryKernel(op *dispatch.Operator, frame *dispatch.Frame,
	f32 func(x, y float32) float32, f64 func(x, y float64) float64) error {
	a, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	b, err := argTensor(op, frame, 1)
	if err != nil {
		return err
	}
	if !a.Shape().Equal(b.Shape()) {
		return fmt.Errorf("%s: shape mismatch %v vs %v", op.Name(), a.Shape(), b.Shape())
	}
	if a.DType() != b.DType() {
		return fmt.Errorf("%s: dtype mismatch %v vs %v", op.Name(), a.DType(), b.DType())
	}
	out, err := tensor.NewRaw(a.Shape(), a.DType(), a.Device())
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name(), err)
	}
	switch a.DType() {
	case tensor.Float32:
		x, y, dst := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
		parallel.For(len(dst), loopCfg, func(i int) {
			dst[i] = f32(x[i], y[i])
		})
	case tensor.Float64:
		x, y, dst := a.AsFloat64(), b.AsFloat64(), out.AsFloat64()
		parallel.For(len(dst), loopCfg, func(i int) {
			dst[i] = f64(x[i], y[i])
		})
	default:
		return fmt.Errorf("%s: unsupported dtype %v", op.Name(), a.DType())
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func negKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	out, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		return fmt.Errorf("neg: %w", err)
	}
	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), out.AsFloat32()
		parallel.For(len(dst), loopCfg, func(i int) {
			dst[i] = -src[i]
		})
	case tensor.Float64:
		src, dst := t.AsFloat64(), out.AsFloat64()
		parallel.For(len(dst), loopCfg, func(i int) {
			dst[i] = -src[i]
		})
	default:
		return fmt.Errorf("neg: unsupported dtype %v", t.DType())
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func scaleKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	t, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	factor, ok := frame.Arg(1).Scalar().(float64)
	if !ok {
		return fmt.Errorf("scale: argument 1 must be a float64 factor")
	}
	out, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		return fmt.Errorf("scale: %w", err)
	}
	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), out.AsFloat32()
		parallel.For(len(dst), loopCfg, func(i int) {
			dst[i] = src[i] * float32(factor)
		})
	case tensor.Float64:
		src, dst := t.AsFloat64(), out.AsFloat64()
		parallel.For(len(dst), loopCfg, func(i int) {
			dst[i] = src[i] * factor
		})
	default:
		return fmt.Errorf("scale: unsupported dtype %v", t.DType())
	}
	frame.SetResults(dispatch.TensorValue(out))
	return nil
}

func addInplaceKernel(op *dispatch.Operator, _ dispatch.KeySet, frame *dispatch.Frame) error {
	self, err := argTensor(op, frame, 0)
	if err != nil {
		return err
	}
	other, err := argTensor(op, frame, 1)
	if err != nil {
		return err
	}
	if !self.Shape().Equal(other.Shape()) {
		return fmt.Errorf("add_: shape mismatch %v vs %v", self.Shape(), other.Shape())
	}
	if self.DType() != other.DType() {
		return fmt.Errorf("add_: dtype mismatch %v vs %v", self.DType(), other.DType())
	}
	switch self.DType() {
	case tensor.Float32:
		dst, src := self.AsFloat32(), other.AsFloat32()
		parallel.For(len(dst), loopCfg, func(i int) {
			dst[i] += src[i]
		})
	case tensor.Float64:
		dst, src := self.AsFloat64(), other.AsFloat64()
		parallel.For(len(dst), loopCfg, func(i int) {
			dst[i] += src[i]
		})
	default:
		return fmt.Errorf("add_: unsupported dtype %v", self.DType())
	}
	frame.SetResults(dispatch.TensorValue(self))
	return nil
}
