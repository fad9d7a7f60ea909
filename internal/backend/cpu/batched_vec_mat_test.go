package cpu

import (
	"errors"
	"testing"

	"github.com/born-ml/jagged/internal/tensor"
)

func TestBatchedDenseVecJagged2DMul(t *testing.T) {
	backend := New()

	// 2 batches, 1 head, 3 channels; segment lengths [3, 0].
	v := float32Tensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 4})
	a := float32Tensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{3, 3})
	offsets := offsetsFromInt32(t, []int32{0, 3, 3})

	out, err := backend.BatchedDenseVecJagged2DMul(v, a, offsets)
	if err != nil {
		t.Fatalf("BatchedDenseVecJagged2DMul: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", out.Shape())
	}
	// Batch 0: 1*row0 + 2*row1 + 3*row2. Batch 1 is empty and yields zeros.
	assertFloat32Equal(t, out, []float32{30, 36, 42, 0, 0, 0})
}

func TestBatchedDenseVecJagged2DMul_TruncatesAtMaxLength(t *testing.T) {
	backend := New()

	// maxL = 2 but the segment has 3 rows: the third row is ignored.
	v := float32Tensor(t, []float32{1, 2}, tensor.Shape{1, 2})
	a := float32Tensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{3, 3})
	offsets := offsetsFromInt32(t, []int32{0, 3})

	out, err := backend.BatchedDenseVecJagged2DMul(v, a, offsets)
	if err != nil {
		t.Fatalf("BatchedDenseVecJagged2DMul: %v", err)
	}
	assertFloat32Equal(t, out, []float32{9, 12, 15})
}

func TestBatchedDenseVecJagged2DMul_MultiHead(t *testing.T) {
	backend := New()

	// 1 batch, 2 heads, 1 channel each: heads interleave columns of a.
	v := float32Tensor(t, []float32{1, 1, 2, 2}, tensor.Shape{2, 2})
	a := float32Tensor(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	offsets := offsetsFromInt32(t, []int32{0, 2})

	out, err := backend.BatchedDenseVecJagged2DMul(v, a, offsets)
	if err != nil {
		t.Fatalf("BatchedDenseVecJagged2DMul: %v", err)
	}
	// Head 0 reads column 0: 1*1 + 1*3; head 1 reads column 1: 2*2 + 2*4.
	assertFloat32Equal(t, out, []float32{4, 12})
}

func TestBatchedDenseVecJagged2DMulVBackward(t *testing.T) {
	backend := New()

	a := float32Tensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{3, 3})
	offsets := offsetsFromInt32(t, []int32{0, 3, 3})
	grad := float32Tensor(t, []float32{1, 1, 1, 1, 1, 1}, tensor.Shape{2, 3})

	vGrad, err := backend.BatchedDenseVecJagged2DMulVBackward(grad, a, offsets, 1, 4)
	if err != nil {
		t.Fatalf("VBackward: %v", err)
	}
	if !vGrad.Shape().Equal(tensor.Shape{2, 4}) {
		t.Fatalf("shape = %v, want [2 4]", vGrad.Shape())
	}
	// vGrad[b, l] = Σ_d grad[b, d] * a[off+l, d]; positions at or past the
	// segment length are zero, as is the whole empty batch.
	assertFloat32Equal(t, vGrad, []float32{6, 15, 24, 0, 0, 0, 0, 0})
}

func TestBatchedDenseVecJagged2DMulMatBackward(t *testing.T) {
	backend := New()

	v := float32Tensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 4})
	offsets := offsetsFromInt32(t, []int32{0, 3, 3})
	grad := float32Tensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	aGrad, err := backend.BatchedDenseVecJagged2DMulMatBackward(grad, v, offsets, 3)
	if err != nil {
		t.Fatalf("MatBackward: %v", err)
	}
	if !aGrad.Shape().Equal(tensor.Shape{3, 3}) {
		t.Fatalf("shape = %v, want [3 3]", aGrad.Shape())
	}
	// aGrad[off+l, d] = v[b, l] * grad[b, d]: each jagged row scales batch
	// 0's gradient row by its weight.
	assertFloat32Equal(t, aGrad, []float32{
		1, 2, 3,
		2, 4, 6,
		3, 6, 9,
	})
}

func TestBatchedDenseVecJagged2DMul_EmptyBatch(t *testing.T) {
	backend := New()

	v := tensor.Zeros(tensor.Shape{0, 4}, tensor.Float32, tensor.CPU)
	a := tensor.Zeros(tensor.Shape{0, 3}, tensor.Float32, tensor.CPU)
	offsets := offsetsFromInt32(t, []int32{0})

	out, err := backend.BatchedDenseVecJagged2DMul(v, a, offsets)
	if err != nil {
		t.Fatalf("BatchedDenseVecJagged2DMul: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{0, 3}) {
		t.Errorf("shape = %v, want [0 3]", out.Shape())
	}
}

func TestBatchedDenseVecJagged2DMul_Validation(t *testing.T) {
	backend := New()
	a := tensor.Zeros(tensor.Shape{3, 3}, tensor.Float32, tensor.CPU)
	offsets := offsetsFromInt32(t, []int32{0, 3, 3})

	t.Run("v outer size not divisible by batch", func(t *testing.T) {
		v := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32, tensor.CPU)
		_, err := backend.BatchedDenseVecJagged2DMul(v, a, offsets)
		if !errors.Is(err, tensor.ErrShapeMismatch) {
			t.Errorf("error = %v, want ErrShapeMismatch", err)
		}
	})

	t.Run("mixed precision", func(t *testing.T) {
		v := tensor.Zeros(tensor.Shape{2, 4}, tensor.Float64, tensor.CPU)
		_, err := backend.BatchedDenseVecJagged2DMul(v, a, offsets)
		if !errors.Is(err, tensor.ErrShapeMismatch) {
			t.Errorf("error = %v, want ErrShapeMismatch", err)
		}
	})

	t.Run("rank mismatch", func(t *testing.T) {
		v := tensor.Zeros(tensor.Shape{2, 2, 2}, tensor.Float32, tensor.CPU)
		_, err := backend.BatchedDenseVecJagged2DMul(v, a, offsets)
		if !errors.Is(err, tensor.ErrShapeMismatch) {
			t.Errorf("error = %v, want ErrShapeMismatch", err)
		}
	})
}
