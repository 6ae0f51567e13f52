package geo

import "testing"

func TestLatLngToCell(t *testing.T) {
	cell := LatLngToCell(37.7749, -122.4194, H3ResolutionSearch)
	if cell == 0 {
		t.Fatal("expected non-zero cell for valid coordinates")
	}
}

func TestGetKRingCells_IncludesOrigin(t *testing.T) {
	origin := LatLngToCell(37.7749, -122.4194, H3ResolutionSearch)
	cells := GetKRingCells(37.7749, -122.4194, H3ResolutionSearch, H3KRingSearch)

	found := false
	for _, c := range cells {
		if c == origin {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected k-ring to include the origin cell")
	}
}

func TestSearchCell_Deterministic(t *testing.T) {
	a := SearchCell(37.7749, -122.4194)
	b := SearchCell(37.7749, -122.4194)
	if a != b {
		t.Errorf("expected deterministic cell string, got %q and %q", a, b)
	}
}

func TestSearchKRing_ContainsSearchCell(t *testing.T) {
	origin := SearchCell(37.7749, -122.4194)
	cells := SearchKRing(37.7749, -122.4194)

	found := false
	for _, c := range cells {
		if c == origin {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected search k-ring to include the pickup's own cell")
	}
}
