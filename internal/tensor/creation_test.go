package tensor

import "testing"

func TestFromSlice(t *testing.T) {
	raw, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, CPU)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if raw.DType() != Float32 {
		t.Errorf("dtype = %s, want float32", raw.DType())
	}
	if raw.AsFloat32()[4] != 5 {
		t.Errorf("element 4 = %v, want 5", raw.AsFloat32()[4])
	}
}

func TestFromSlice_LengthMismatch(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, CPU)
	if err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestFromSlice_InfersIntDTypes(t *testing.T) {
	i32, err := FromSlice([]int32{0, 2}, Shape{2}, CPU)
	if err != nil {
		t.Fatalf("FromSlice int32: %v", err)
	}
	if i32.DType() != Int32 {
		t.Errorf("dtype = %s, want int32", i32.DType())
	}

	i64, err := FromSlice([]int64{0, 2}, Shape{2}, CPU)
	if err != nil {
		t.Fatalf("FromSlice int64: %v", err)
	}
	if i64.DType() != Int64 {
		t.Errorf("dtype = %s, want int64", i64.DType())
	}
}

func TestZeros(t *testing.T) {
	raw := Zeros(Shape{3, 3}, Float64, CPU)
	for i, v := range raw.AsFloat64() {
		if v != 0 {
			t.Fatalf("element %d = %v, want 0", i, v)
		}
	}
}

func TestFull(t *testing.T) {
	raw := Full(Shape{2, 2}, Float32, CPU, -1.5)
	for i, v := range raw.AsFloat32() {
		if v != -1.5 {
			t.Fatalf("element %d = %v, want -1.5", i, v)
		}
	}
}

func TestOnesLike(t *testing.T) {
	src := Zeros(Shape{2, 3}, Float64, CPU)
	ones := OnesLike(src)
	if !ones.Shape().Equal(src.Shape()) {
		t.Fatalf("shape = %v, want %v", ones.Shape(), src.Shape())
	}
	for i, v := range ones.AsFloat64() {
		if v != 1 {
			t.Fatalf("element %d = %v, want 1", i, v)
		}
	}
}

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{4}, 4},
		{Shape{2, 3, 4}, 24},
		{Shape{2, 0, 4}, 0},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Errorf("stride %d = %d, want %d", i, strides[i], want[i])
		}
	}
}
