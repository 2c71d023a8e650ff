package tensor

import (
	"strings"
	"testing"
)

func TestNewRaw(t *testing.T) {
	r, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	if !r.Shape().Equal(Shape{2, 3}) {
		t.Errorf("shape = %v, want [2 3]", r.Shape())
	}
	if r.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", r.NumElements())
	}
	if r.ByteSize() != 24 {
		t.Errorf("ByteSize() = %d, want 24", r.ByteSize())
	}
	for _, v := range r.AsFloat32() {
		if v != 0 {
			t.Error("new tensor should be zero-initialized")
			break
		}
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{2, 0}, Float32, CPU); err == nil {
		t.Error("NewRaw with zero dimension should fail")
	}
}

func TestFromSlice(t *testing.T) {
	r, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	data := r.AsFloat32()
	for i, want := range []float32{1, 2, 3, 4} {
		if data[i] != want {
			t.Errorf("data[%d] = %v, want %v", i, data[i], want)
		}
	}
}

func TestFromSliceCountMismatch(t *testing.T) {
	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("FromSlice with wrong element count should fail")
	}
}

func TestReshapeSharesBuffer(t *testing.T) {
	r, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	flat, err := r.Reshape(Shape{4})
	if err != nil {
		t.Fatalf("Reshape: %v", err)
	}
	if !flat.Shape().Equal(Shape{4}) {
		t.Errorf("view shape = %v, want [4]", flat.Shape())
	}
	if !flat.SharesBuffer(r) {
		t.Error("reshape view should share the base tensor's buffer")
	}

	// Writes through the view are visible in the base tensor.
	flat.AsFloat32()[0] = 42
	if r.AsFloat32()[0] != 42 {
		t.Error("write through view not visible in base tensor")
	}

	// The base tensor's own shape is untouched.
	if !r.Shape().Equal(Shape{2, 2}) {
		t.Errorf("base shape = %v, want [2 2]", r.Shape())
	}
}

func TestReshapeCountMismatch(t *testing.T) {
	r, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if _, err := r.Reshape(Shape{3}); err == nil {
		t.Error("Reshape to mismatched element count should fail")
	}
}

func TestSetShape(t *testing.T) {
	r, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if err := r.SetShape(Shape{4}); err != nil {
		t.Fatalf("SetShape: %v", err)
	}
	if !r.Shape().Equal(Shape{4}) {
		t.Errorf("shape = %v, want [4]", r.Shape())
	}
	if r.AsFloat32()[3] != 4 {
		t.Error("SetShape must not touch the data buffer")
	}
	if err := r.SetShape(Shape{5}); err == nil {
		t.Error("SetShape to mismatched element count should fail")
	}
}

func TestCopyFrom(t *testing.T) {
	dst, err := Zeros[float32](Shape{2, 2})
	if err != nil {
		t.Fatalf("Zeros: %v", err)
	}
	src, err := FromSlice([]float32{1, 2, 3, 4}, Shape{4})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	// Shapes differ but counts match: copy is allowed.
	if err := dst.CopyFrom(src); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if dst.AsFloat32()[3] != 4 {
		t.Error("CopyFrom did not copy data")
	}
	if !dst.Shape().Equal(Shape{2, 2}) {
		t.Errorf("CopyFrom must not change dst shape, got %v", dst.Shape())
	}
}

func TestCopyFromMismatch(t *testing.T) {
	dst, _ := Zeros[float32](Shape{2, 2})
	srcCount, _ := Zeros[float32](Shape{5})
	if err := dst.CopyFrom(srcCount); err == nil {
		t.Error("CopyFrom with mismatched element count should fail")
	}
	srcType, _ := Zeros[float64](Shape{2, 2})
	if err := dst.CopyFrom(srcType); err == nil {
		t.Error("CopyFrom with mismatched dtype should fail")
	}
}

func TestMaterialize(t *testing.T) {
	r, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	cp, err := r.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if cp.SharesBuffer(r) {
		t.Error("Materialize should allocate an independent buffer")
	}
	cp.AsFloat32()[0] = 99
	if r.AsFloat32()[0] != 1 {
		t.Error("writes to the materialized copy must not affect the original")
	}
}

func TestClone(t *testing.T) {
	r, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	c := r.Clone()
	if !c.SharesBuffer(r) {
		t.Error("Clone should share the buffer")
	}
	if !c.Shape().Equal(r.Shape()) {
		t.Errorf("clone shape = %v, want %v", c.Shape(), r.Shape())
	}
}

func TestFull(t *testing.T) {
	r, err := Full(Shape{3}, float64(2.5))
	if err != nil {
		t.Fatalf("Full: %v", err)
	}
	for _, v := range r.AsFloat64() {
		if v != 2.5 {
			t.Errorf("value = %v, want 2.5", v)
		}
	}
}

func TestDumpString(t *testing.T) {
	r, err := FromSlice([]float32{1, 2}, Shape{2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	var sb strings.Builder
	r.Dump(&sb)
	out := sb.String()
	if !strings.Contains(out, "float32") || !strings.Contains(out, "[2]") {
		t.Errorf("Dump output %q missing dtype or shape", out)
	}
}

func TestDataOf(t *testing.T) {
	r, err := FromSlice([]int64{7, 8}, Shape{2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	data := DataOf[int64](r)
	if data[1] != 8 {
		t.Errorf("DataOf[int64][1] = %d, want 8", data[1])
	}
}
