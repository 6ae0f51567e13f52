package geo

import (
	"github.com/uber/h3-go/v4"
)

// H3ResolutionSearch is the cell resolution used for courier candidate
// search. Resolution 7 cells have a ~1.2 km edge, coarse enough that a
// k-ring stays small while covering a metro-scale search area.
// See https://h3geo.org/docs/core-library/restable
const H3ResolutionSearch = 7

// H3KRingSearch is the k-ring radius for candidate pre-filtering. At
// resolution 7, k=10 reaches roughly 20 km (~12.5 mi) from the pickup,
// wider than the default courier service_area_radius_miles, so the exact
// per-courier Haversine check never loses a legitimate candidate.
const H3KRingSearch = 10

// LatLngToCell converts latitude/longitude to an H3 cell index at the given
// resolution. Returns 0 on invalid input.
func LatLngToCell(lat, lng float64, resolution int) h3.Cell {
	latLng := h3.NewLatLng(lat, lng)
	cell, err := h3.LatLngToCell(latLng, resolution)
	if err != nil {
		return 0
	}
	return cell
}

// GetKRingCells returns the set of H3 cell indexes within k rings of the
// origin coordinate, used to narrow a courier search before the exact
// distance check runs.
func GetKRingCells(lat, lng float64, resolution, k int) []h3.Cell {
	origin := LatLngToCell(lat, lng, resolution)
	cells, err := origin.GridDisk(k)
	if err != nil {
		return []h3.Cell{origin}
	}
	return cells
}

// GetKRingCellStrings returns k-ring cells as hex strings, the form stored
// against a courier's last-known-location index.
func GetKRingCellStrings(lat, lng float64, resolution, k int) []string {
	cells := GetKRingCells(lat, lng, resolution, k)
	result := make([]string, len(cells))
	for i, cell := range cells {
		result[i] = cell.String()
	}
	return result
}

// CellToString converts an H3 cell to its hex string representation.
func CellToString(cell h3.Cell) string {
	return cell.String()
}

// SearchCell returns the H3 cell index (as a hex string) for courier search
// indexing at the given location.
func SearchCell(lat, lng float64) string {
	return LatLngToCell(lat, lng, H3ResolutionSearch).String()
}

// SearchKRing returns the candidate-search cell set around a pickup point
// at the search resolution, matching the form SearchCell stores.
func SearchKRing(lat, lng float64) []string {
	return GetKRingCellStrings(lat, lng, H3ResolutionSearch, H3KRingSearch)
}
