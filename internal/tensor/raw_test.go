package tensor

import (
	"testing"
)

func TestRawTensorAsFloat32(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Float32, CPU)
	data := raw.AsFloat32()

	if len(data) != 6 {
		t.Errorf("AsFloat32 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("AsFloat32 should return zero-copy slice")
	}
}

func TestRawTensorAsInt64(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Int64, CPU)
	data := raw.AsInt64()

	if len(data) != 6 {
		t.Errorf("AsInt64 length = %d, want 6", len(data))
	}

	data[0] = 42
	if raw.AsInt64()[0] != 42 {
		t.Error("AsInt64 should return zero-copy slice")
	}
}

func TestRawTensorAsTyped_WrongDType(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32, CPU)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for dtype mismatch")
		}
	}()
	raw.AsInt32()
}

func TestRawTensorAsTyped_Empty(t *testing.T) {
	raw, _ := NewRaw(Shape{0, 4}, Float32, CPU)
	if raw.AsFloat32() != nil {
		t.Error("empty tensor should yield a nil slice")
	}
}

func TestRawTensorRelease(_ *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)

	// Should not panic
	raw.Release()

	// Multiple releases should be safe (reference counting)
	raw.Release()
}

func TestRawTensorForceNonUnique(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)

	if !raw.IsUnique() {
		t.Error("New RawTensor should be unique initially")
	}

	restore := raw.ForceNonUnique()
	if raw.IsUnique() {
		t.Error("RawTensor should not be unique while forced")
	}

	restore()
	if !raw.IsUnique() {
		t.Error("RawTensor should be unique again after restore")
	}
}

func TestRawTensorClone(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	raw.AsFloat32()[0] = 7

	clone := raw.Clone()
	if raw.IsUnique() {
		t.Error("buffer should be shared after Clone")
	}
	if clone.AsFloat32()[0] != 7 {
		t.Error("clone should see the shared buffer")
	}
}

func TestRawTensorDeepClone(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	raw.AsFloat32()[0] = 7

	clone := raw.DeepClone()
	clone.AsFloat32()[0] = 9
	if raw.AsFloat32()[0] != 7 {
		t.Error("DeepClone should not alias the source buffer")
	}
	if !raw.IsUnique() || !clone.IsUnique() {
		t.Error("DeepClone should leave both tensors unique")
	}
}

func TestRawTensorSliceRows(t *testing.T) {
	raw, _ := NewRaw(Shape{4, 2}, Float32, CPU)
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}

	view := raw.SliceRows(1, 3)
	if !view.Shape().Equal(Shape{2, 2}) {
		t.Fatalf("view shape = %v, want [2 2]", view.Shape())
	}
	got := view.AsFloat32()
	if got[0] != 2 || got[3] != 5 {
		t.Errorf("view data = %v, want rows 1..2 of source", got)
	}

	// Writes through the view land in the source buffer.
	got[0] = 100
	if raw.AsFloat32()[2] != 100 {
		t.Error("SliceRows should be a zero-copy view")
	}
}

func TestRawTensorSliceRows_OutOfRange(t *testing.T) {
	raw, _ := NewRaw(Shape{4, 2}, Float32, CPU)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range slice")
		}
	}()
	raw.SliceRows(2, 5)
}

func TestRawTensorReshape(t *testing.T) {
	raw, _ := NewRaw(Shape{6}, Float32, CPU)
	raw.AsFloat32()[5] = 3

	view := raw.Reshape(Shape{6, 1})
	if !view.Shape().Equal(Shape{6, 1}) {
		t.Fatalf("view shape = %v, want [6 1]", view.Shape())
	}
	if view.AsFloat32()[5] != 3 {
		t.Error("Reshape should be a zero-copy view")
	}
}

func TestRawTensorReshape_ElementCountMismatch(t *testing.T) {
	raw, _ := NewRaw(Shape{6}, Float32, CPU)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for element count mismatch")
		}
	}()
	raw.Reshape(Shape{5, 1})
}
