package datasets

import "testing"

func TestNewArrayFromValidatesLength(t *testing.T) {
	if _, err := NewArrayFrom([]float64{1, 2, 3}, 2, 2); err == nil {
		t.Fatal("expected error for mismatched buffer length")
	}
	a, err := NewArrayFrom([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatalf("NewArrayFrom error: %v", err)
	}
	if a.Len() != 2 || a.ObsSize() != 3 {
		t.Fatalf("unexpected dims: len=%d obsSize=%d", a.Len(), a.ObsSize())
	}
}

func TestTakeGathersObservations(t *testing.T) {
	a, _ := NewArrayFrom([]float64{1, 2, 3, 4, 5, 6}, 3, 2)

	got, err := a.Take([]int{2, 0, 2})
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	want := []float64{5, 6, 1, 2, 5, 6}
	if got.Len() != 3 {
		t.Fatalf("expected 3 observations, got %d", got.Len())
	}
	for i, v := range want {
		if got.Data[i] != v {
			t.Fatalf("Take data mismatch at %d: got %v want %v", i, got.Data[i], v)
		}
	}

	if _, err := a.Take([]int{3}); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestTakeDoesNotAliasSource(t *testing.T) {
	a, _ := NewArrayFrom([]float64{1, 2, 3, 4}, 2, 2)
	got, err := a.Take([]int{0})
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	got.Data[0] = 99
	if a.Data[0] != 1 {
		t.Fatal("Take must copy, not alias, source data")
	}
}

func TestSameLen(t *testing.T) {
	a := NewArray(4, 2)
	b := NewArray(4, 3, 5)
	c := NewArray(5, 2)
	if !SameLen(a, b) {
		t.Fatal("arrays with equal leading dims should match")
	}
	if SameLen(a, c) {
		t.Fatal("arrays with different leading dims should not match")
	}
}
