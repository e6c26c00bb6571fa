package adapter

import (
	"sort"
	"strings"

	"netsync/internal/domain"
	"netsync/internal/source"
)

// LocationEntry is the resolved view of one location record
type LocationEntry struct {
	ID       string
	Name     string
	ParentID string
	Parent   string // parent name, empty when the parent is absent or filtered
	Kind     domain.Kind
	Record   source.Location
}

// LocationIndex maps controller location ids to names, kinds and parents.
// It is built in two passes and never modified afterwards.
type LocationIndex struct {
	entries   map[string]LocationEntry
	Areas     []source.Location
	Buildings []source.Location
	Floors    []source.Location
}

// BuildLocationIndex indexes records. Unless importTopLevel is set, the record
// named topLevelName is left out of the index and every bucket.
func BuildLocationIndex(records []source.Location, importTopLevel bool, topLevelName string) *LocationIndex {
	idx := &LocationIndex{entries: make(map[string]LocationEntry, len(records))}

	skip := func(rec source.Location) bool {
		return !importTopLevel && rec.Name == topLevelName
	}

	// Pass 1: every id with its name, defaulting to area.
	for _, rec := range records {
		if rec.ID == "" || skip(rec) {
			continue
		}
		idx.entries[rec.ID] = LocationEntry{
			ID:       rec.ID,
			Name:     rec.Name,
			ParentID: rec.ParentID,
			Kind:     domain.KindArea,
			Record:   rec,
		}
	}

	// Pass 2: classify and resolve parents against the completed map.
	for _, rec := range records {
		entry, ok := idx.entries[rec.ID]
		if !ok {
			continue
		}
		if parent, ok := idx.entries[rec.ParentID]; ok {
			entry.Parent = parent.Name
		}

		switch source.LocationType(rec.AdditionalInfo) {
		case source.LocationTypeBuilding:
			entry.Kind = domain.KindBuilding
			idx.Buildings = append(idx.Buildings, rec)
		case source.LocationTypeFloor:
			entry.Kind = domain.KindFloor
			idx.Floors = append(idx.Floors, rec)
		default:
			idx.Areas = append(idx.Areas, rec)
		}
		idx.entries[rec.ID] = entry
	}

	return idx
}

// Get returns the entry for id
func (idx *LocationIndex) Get(id string) (LocationEntry, bool) {
	e, ok := idx.entries[id]
	return e, ok
}

// Parent returns the parent entry of id
func (idx *LocationIndex) Parent(id string) (LocationEntry, bool) {
	e, ok := idx.entries[id]
	if !ok {
		return LocationEntry{}, false
	}
	return idx.Get(e.ParentID)
}

// Len returns the number of indexed locations
func (idx *LocationIndex) Len() int {
	return len(idx.entries)
}

// SitePlacement is a device's position resolved from its site hierarchy
type SitePlacement struct {
	Areas    []string `json:"areas"`
	Building string   `json:"building"`
	Floor    string   `json:"floor,omitempty"`
}

// ResolveSiteHierarchy walks a "/id/id/id" path through the index.
// Ids the index does not know are ignored.
func (idx *LocationIndex) ResolveSiteHierarchy(path string) SitePlacement {
	var placement SitePlacement
	for _, id := range strings.Split(path, "/") {
		if id == "" {
			continue
		}
		e, ok := idx.entries[id]
		if !ok {
			continue
		}
		switch e.Kind {
		case domain.KindBuilding:
			placement.Building = e.Name
		case domain.KindFloor:
			placement.Floor = e.Name
		default:
			placement.Areas = append(placement.Areas, e.Name)
		}
	}
	return placement
}

// hierarchyDepth counts the segments of a site hierarchy path
func hierarchyDepth(path string) int {
	return len(strings.Split(path, "/"))
}

// SortAreasByDepth orders areas so shallower site hierarchies come first.
// Records of equal depth keep their input order.
func SortAreasByDepth(areas []source.Location) []source.Location {
	sorted := make([]source.Location, len(areas))
	copy(sorted, areas)
	sort.SliceStable(sorted, func(i, j int) bool {
		return hierarchyDepth(sorted[i].SiteHierarchy) < hierarchyDepth(sorted[j].SiteHierarchy)
	})
	return sorted
}
