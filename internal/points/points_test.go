package points

import "testing"

func TestStoreGet(t *testing.T) {
	data := []float32{0, 0, 1, 0, 2, 0, 3, 0}
	s := New(4, 2, data)

	if s.Len() != 4 || s.Dim() != 2 {
		t.Fatalf("unexpected shape Len=%d Dim=%d", s.Len(), s.Dim())
	}

	got := s.Get(2)
	if got[0] != 2 || got[1] != 0 {
		t.Errorf("Get(2) = %v, want [2 0]", got)
	}
}

func TestSubsetView(t *testing.T) {
	data := []float32{0, 0, 1, 0, 2, 0, 3, 0}
	s := New(4, 2, data)

	sub := s.Subset([]int32{3, 1})
	if sub.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sub.Len())
	}

	got := sub.Get(0)
	if got[0] != 3 || got[1] != 0 {
		t.Errorf("Get(0) = %v, want [3 0]", got)
	}

	if sub.GlobalID(1) != 1 {
		t.Errorf("GlobalID(1) = %d, want 1", sub.GlobalID(1))
	}
}
