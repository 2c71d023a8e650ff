package tensor

import "fmt"

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}

	copy(DataOf[T](raw), data)
	return raw, nil
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType](shape Shape) (*RawTensor, error) {
	var dummy T
	// Data is already zero-initialized by make()
	return NewRaw(shape, inferDataType(dummy), CPU)
}

// Full creates a tensor filled with a specific value.
func Full[T DType](shape Shape, value T) (*RawTensor, error) {
	raw, err := Zeros[T](shape)
	if err != nil {
		return nil, err
	}
	data := DataOf[T](raw)
	for i := range data {
		data[i] = value
	}
	return raw, nil
}

// DataOf returns a typed slice view of the tensor's data.
// The slice directly accesses the underlying memory (zero-copy).
// Panics if T does not match the tensor's dtype.
func DataOf[T DType](r *RawTensor) []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	case float64:
		return any(r.AsFloat64()).([]T)
	case int32:
		return any(r.AsInt32()).([]T)
	case int64:
		return any(r.AsInt64()).([]T)
	case uint8:
		return any(r.AsUint8()).([]T)
	case bool:
		return any(r.AsBool()).([]T)
	default:
		panic("unsupported type")
	}
}
