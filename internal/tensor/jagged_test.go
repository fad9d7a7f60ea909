package tensor

import (
	"errors"
	"testing"
)

func buildJagged(t *testing.T, lengths []int32, inner int) *Jagged {
	t.Helper()
	total := 0
	offsets, _ := NewRaw(Shape{len(lengths) + 1}, Int32, CPU)
	offData := offsets.AsInt32()
	for i, l := range lengths {
		total += int(l)
		offData[i+1] = offData[i] + l
	}
	values, _ := NewRaw(Shape{total, inner}, Float32, CPU)
	j, err := NewJagged(values, []*RawTensor{offsets})
	if err != nil {
		t.Fatalf("NewJagged: %v", err)
	}
	return j
}

func TestJaggedAccessors(t *testing.T) {
	j := buildJagged(t, []int32{2, 0, 3}, 4)

	if j.NumJaggedDims() != 1 {
		t.Errorf("NumJaggedDims = %d, want 1", j.NumJaggedDims())
	}
	if j.OuterSize() != 3 {
		t.Errorf("OuterSize = %d, want 3", j.OuterSize())
	}
	if j.InnerDim() != 4 {
		t.Errorf("InnerDim = %d, want 4", j.InnerDim())
	}

	lengths := j.Lengths(0)
	want := []int{2, 0, 3}
	for i := range want {
		if lengths[i] != want[i] {
			t.Errorf("Lengths[%d] = %d, want %d", i, lengths[i], want[i])
		}
	}
	if j.MaxLength(0) != 3 {
		t.Errorf("MaxLength = %d, want 3", j.MaxLength(0))
	}
}

func TestJaggedMaxLength_Empty(t *testing.T) {
	j := buildJagged(t, nil, 2)
	if j.MaxLength(0) != 0 {
		t.Errorf("MaxLength of empty jagged = %d, want 0", j.MaxLength(0))
	}
}

func TestNewJagged_Validation(t *testing.T) {
	goodValues, _ := NewRaw(Shape{3, 2}, Float32, CPU)
	goodOffsets, _ := NewRaw(Shape{2}, Int32, CPU)

	tests := []struct {
		name    string
		values  *RawTensor
		offsets []*RawTensor
	}{
		{
			name:    "values must be 2-D",
			values:  Zeros(Shape{3}, Float32, CPU),
			offsets: []*RawTensor{goodOffsets},
		},
		{
			name:    "at least one offsets array",
			values:  goodValues,
			offsets: nil,
		},
		{
			name:    "values must be float",
			values:  Zeros(Shape{3, 2}, Int32, CPU),
			offsets: []*RawTensor{goodOffsets},
		},
		{
			name:    "offsets must be 1-D",
			values:  goodValues,
			offsets: []*RawTensor{Zeros(Shape{2, 2}, Int32, CPU)},
		},
		{
			name:    "offsets must be integer",
			values:  goodValues,
			offsets: []*RawTensor{Zeros(Shape{2}, Float32, CPU)},
		},
		{
			name:   "offsets dtypes must agree",
			values: goodValues,
			offsets: []*RawTensor{
				Zeros(Shape{2}, Int32, CPU),
				Zeros(Shape{2}, Int64, CPU),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJagged(tt.values, tt.offsets)
			if !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("error = %v, want ErrShapeMismatch", err)
			}
		})
	}
}

func TestOffsetAt(t *testing.T) {
	off32, _ := NewRaw(Shape{3}, Int32, CPU)
	off32.AsInt32()[1] = 5
	if OffsetAt(off32, 1) != 5 {
		t.Errorf("OffsetAt int32 = %d, want 5", OffsetAt(off32, 1))
	}

	off64, _ := NewRaw(Shape{3}, Int64, CPU)
	off64.AsInt64()[2] = 9
	if OffsetAt(off64, 2) != 9 {
		t.Errorf("OffsetAt int64 = %d, want 9", OffsetAt(off64, 2))
	}
}
