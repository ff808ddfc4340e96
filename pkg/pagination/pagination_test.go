package pagination

import "testing"

func TestValidateClampsParams(t *testing.T) {
	p := &PaginationParams{Page: -3, PerPage: 10000}
	p.Validate()
	if p.Page != 1 {
		t.Fatalf("expected page clamped to 1, got %d", p.Page)
	}
	if p.PerPage != 100 {
		t.Fatalf("expected per_page clamped to 100, got %d", p.PerPage)
	}
}

func TestOffset(t *testing.T) {
	p := &PaginationParams{Page: 3, PerPage: 15}
	if p.Offset() != 30 {
		t.Fatalf("expected offset 30, got %d", p.Offset())
	}
}

func TestNewPagination(t *testing.T) {
	pag := NewPagination(2, 15, 31)
	if pag.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", pag.TotalPages)
	}
	if !pag.HasNext || !pag.HasPrev {
		t.Fatalf("page 2 of 3 must have both neighbours")
	}
}
