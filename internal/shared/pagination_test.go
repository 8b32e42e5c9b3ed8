package shared

import "testing"

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 45)
	if p.Page != 1 || p.PerPage != 20 || p.TotalPages != 3 {
		t.Fatalf("unexpected pagination %+v", p)
	}
}

func TestPaginationSlice(t *testing.T) {
	p := NewPagination(2, 10, 25)
	start, end := p.Slice()
	if start != 10 || end != 20 {
		t.Fatalf("slice = [%d, %d), want [10, 20)", start, end)
	}

	last := NewPagination(3, 10, 25)
	start, end = last.Slice()
	if start != 20 || end != 25 {
		t.Fatalf("final page slice = [%d, %d), want [20, 25)", start, end)
	}

	past := NewPagination(9, 10, 25)
	start, end = past.Slice()
	if start != 25 || end != 25 {
		t.Fatalf("out-of-range page must be empty, got [%d, %d)", start, end)
	}
}
