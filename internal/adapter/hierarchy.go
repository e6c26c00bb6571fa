package adapter

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"netsync/internal/config"
	"netsync/internal/domain"
	"netsync/internal/source"
	"netsync/internal/store"
)

// maxAreaDepth bounds ancestor resolution against cyclic parent data
const maxAreaDepth = 32

// HierarchyLoader inserts areas, buildings and floors so that no child is
// inserted before its parent.
type HierarchyLoader struct {
	store *store.Store
	index *LocationIndex
	cfg   *config.LoadConfig
	log   *zap.Logger

	// areaParents maps an area name to the first parent it was seen with.
	// Only lookups that start from a bare name (overrides, controller
	// location) consult it.
	areaParents map[string]string
	areas       map[string]domain.Area // by key index
	areaByID    map[string]domain.Area // by location id of the current index
	buildings   map[string]domain.Building
}

// NewHierarchyLoader creates a loader writing to st. A nil index behaves
// like an index with no locations.
func NewHierarchyLoader(st *store.Store, index *LocationIndex, cfg *config.LoadConfig, logger *zap.Logger) *HierarchyLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if index == nil {
		index = BuildLocationIndex(nil, cfg.ImportGlobal, cfg.TopLevelName)
	}
	h := &HierarchyLoader{
		store:       st,
		cfg:         cfg,
		log:         logger.Named("hierarchy"),
		areaParents: make(map[string]string),
		areas:       make(map[string]domain.Area),
		buildings:   make(map[string]domain.Building),
	}
	h.SetIndex(index)
	return h
}

// SetIndex replaces the location index and learns its area parents
func (h *HierarchyLoader) SetIndex(index *LocationIndex) {
	h.index = index
	h.areaByID = make(map[string]domain.Area)
	for _, rec := range index.Areas {
		name, parent := h.areaIdentity(rec)
		if _, known := h.areaParents[name]; !known {
			h.areaParents[name] = parent
		}
	}
}

// Index returns the current location index
func (h *HierarchyLoader) Index() *LocationIndex {
	return h.index
}

// normalize maps the top-level container to empty unless it is imported
func (h *HierarchyLoader) normalize(name string) string {
	if !h.cfg.ImportGlobal && name == h.cfg.TopLevelName {
		return ""
	}
	return name
}

// areaIdentity returns the name and parent of an area record after overrides
func (h *HierarchyLoader) areaIdentity(rec source.Location) (string, string) {
	name := rec.Name
	var parent string
	if entry, ok := h.index.Get(rec.ID); ok {
		parent = entry.Parent
	}
	if o, ok := h.cfg.Override(rec.Name); ok {
		if o.Name != "" {
			name = o.Name
		}
		if o.Parent != "" {
			parent = o.Parent
		}
	}
	return name, h.normalize(parent)
}

// LoadAreas inserts area records, ancestors first
func (h *HierarchyLoader) LoadAreas(areas []source.Location) {
	for _, rec := range SortAreasByDepth(areas) {
		if rec.Name == "" {
			continue
		}
		if h.cfg.Debug {
			h.log.Info("Loading area", zap.String("name", rec.Name), zap.String("id", rec.ID))
		}

		var err error
		if _, indexed := h.index.Get(rec.ID); indexed {
			_, err = h.ensureIndexedArea(rec.ID, 0)
		} else {
			name, parent := h.areaIdentity(rec)
			_, err = h.ensureNamedArea(name, parent, 0)
		}
		if err != nil {
			h.log.Warn("Unable to load area", zap.String("name", rec.Name), zap.Error(err))
		}
	}
}

// ensureIndexedArea inserts the area record with the given location id,
// walking its ancestors by parent id so areas sharing a name under
// different parents stay distinct.
func (h *HierarchyLoader) ensureIndexedArea(id string, depth int) (domain.Area, error) {
	if a, ok := h.areaByID[id]; ok {
		return a, nil
	}
	entry, ok := h.index.Get(id)
	if !ok {
		return domain.Area{}, fmt.Errorf("location %s: %w", id, store.ErrNotFound)
	}

	name := entry.Name
	override, overridden := h.cfg.Override(entry.Name)
	if overridden && override.Name != "" {
		name = override.Name
	}

	var (
		a   domain.Area
		err error
	)
	parent, parentIndexed := h.index.Get(entry.ParentID)
	switch {
	case overridden && override.Parent != "":
		a, err = h.ensureNamedArea(name, h.normalize(override.Parent), depth)
	case depth >= maxAreaDepth:
		h.log.Warn("Area ancestry too deep, treating as top level", zap.String("name", name))
		a, err = h.insertArea(domain.Area{Name: name}, domain.Ref{})
	case parentIndexed && parent.Kind == domain.KindArea && parent.ID != id:
		var pa domain.Area
		if pa, err = h.ensureIndexedArea(parent.ID, depth+1); err == nil {
			a, err = h.insertArea(domain.Area{Name: name, Parent: pa.Name}, domain.RefOf(pa))
		}
	default:
		a, err = h.ensureNamedArea(name, h.normalize(entry.Parent), depth)
	}
	if err != nil {
		return domain.Area{}, err
	}
	h.areaByID[id] = a
	return a, nil
}

// ensureNamedArea inserts the area and, before it, any missing ancestors
// known by name.
func (h *HierarchyLoader) ensureNamedArea(name, parent string, depth int) (domain.Area, error) {
	if parent == name {
		parent = ""
	}
	if a, ok := h.areas[domain.Area{Name: name, Parent: parent}.Key().Index()]; ok {
		return a, nil
	}
	if parent == "" {
		return h.insertArea(domain.Area{Name: name}, domain.Ref{})
	}
	if depth >= maxAreaDepth {
		h.log.Warn("Area ancestry too deep, treating as top level", zap.String("name", name))
		return h.insertArea(domain.Area{Name: name}, domain.Ref{})
	}

	pa, err := h.ensureNamedArea(parent, h.normalize(h.areaParents[parent]), depth+1)
	if err != nil {
		return domain.Area{}, err
	}
	return h.insertArea(domain.Area{Name: name, Parent: parent}, domain.RefOf(pa))
}

// insertArea upserts a and links it under parentRef when a has a parent
func (h *HierarchyLoader) insertArea(a domain.Area, parentRef domain.Ref) (domain.Area, error) {
	idx := a.Key().Index()
	if known, ok := h.areas[idx]; ok {
		return known, nil
	}
	if _, _, err := h.store.Upsert(a); err != nil {
		return domain.Area{}, err
	}
	h.areas[idx] = a
	if _, known := h.areaParents[a.Name]; !known {
		h.areaParents[a.Name] = a.Parent
	}
	if a.Parent != "" {
		if err := h.store.InsertChild(parentRef, domain.RefOf(a)); err != nil {
			return domain.Area{}, err
		}
	}
	return a, nil
}

// LoadBuildings inserts building records after their area chain
func (h *HierarchyLoader) LoadBuildings(buildings []source.Location) {
	for _, rec := range buildings {
		if h.cfg.Debug {
			h.log.Info("Loading building", zap.String("name", rec.Name), zap.String("id", rec.ID))
		}

		address, _ := source.FindAddressAndType(rec.AdditionalInfo)
		latitude, longitude := source.FindLatitudeLongitude(rec.AdditionalInfo)
		b := domain.Building{
			Name:      rec.Name,
			Address:   address,
			Latitude:  latitude,
			Longitude: longitude,
			Tenant:    h.cfg.Tenant,
		}

		o, overridden := h.cfg.Override(rec.Name)
		if overridden && o.Name != "" {
			b.Name = o.Name
		}
		parent, hasParent := h.index.Parent(rec.ID)

		// The area record itself is known: place the building under it
		if hasParent && parent.Kind == domain.KindArea && !(overridden && (o.Parent != "" || o.AreaParent != "")) {
			a, err := h.ensureIndexedArea(parent.ID, 0)
			if err != nil {
				h.log.Warn("Unable to load area for building",
					zap.String("building", b.Name), zap.String("area", parent.Name), zap.Error(err))
				continue
			}
			b.Area, b.AreaParent = a.Name, a.Parent
			h.insertBuilding(rec.Name, b, domain.RefOf(a))
			continue
		}

		if hasParent {
			b.Area = parent.Name
			if grand, ok := h.index.Parent(parent.ID); ok {
				b.AreaParent = grand.Name
			}
		}
		if overridden {
			if o.Parent != "" {
				b.Area = o.Parent
			}
			if o.AreaParent != "" {
				b.AreaParent = o.AreaParent
			}
		}
		if !overridden || o.AreaParent == "" {
			if ao, ok := h.cfg.Override(b.Area); ok && ao.Parent != "" {
				b.AreaParent = ao.Parent
			}
		}
		b.Area = h.normalize(b.Area)
		b.AreaParent = h.normalize(b.AreaParent)

		h.loadBuilding(rec.Name, b)
	}
}

// loadBuilding upserts b under the area named by b.Area. sourceName is the
// controller's name for the building, which may differ from b.Name after an
// override.
func (h *HierarchyLoader) loadBuilding(sourceName string, b domain.Building) {
	if b.Area == "" {
		h.insertBuilding(sourceName, b, domain.Ref{})
		return
	}

	parent := b.AreaParent
	if parent == "" {
		parent = h.normalize(h.areaParents[b.Area])
	}
	a, err := h.ensureNamedArea(b.Area, parent, 0)
	if err != nil {
		h.log.Warn("Unable to load area for building",
			zap.String("building", b.Name), zap.String("area", b.Area), zap.Error(err))
		return
	}
	b.AreaParent = a.Parent
	h.insertBuilding(sourceName, b, domain.RefOf(a))
}

// insertBuilding upserts b and links it under areaRef when b has an area
func (h *HierarchyLoader) insertBuilding(sourceName string, b domain.Building, areaRef domain.Ref) {
	node, created, err := h.store.Upsert(b)
	if err != nil {
		h.log.Warn("Unable to load building", zap.String("name", b.Name), zap.Error(err))
		return
	}
	stored := node.(domain.Building)
	h.remember(sourceName, stored)
	if !created {
		h.log.Warn("Building already loaded so skipping", zap.String("name", b.Name), zap.String("area", b.Area))
		return
	}
	if b.Area != "" {
		if err := h.store.InsertChild(areaRef, domain.RefOf(stored)); err != nil {
			h.log.Warn("Unable to link building to area", zap.String("name", b.Name), zap.Error(err))
		}
	}
}

func (h *HierarchyLoader) remember(sourceName string, b domain.Building) {
	if _, ok := h.buildings[sourceName]; !ok {
		h.buildings[sourceName] = b
	}
	if _, ok := h.buildings[b.Name]; !ok {
		h.buildings[b.Name] = b
	}
}

// Building returns the stored building known by its controller name or its
// loaded name.
func (h *HierarchyLoader) Building(name string) (domain.Building, bool) {
	b, ok := h.buildings[name]
	return b, ok
}

// LoadFloors inserts floor records as children of their building
func (h *HierarchyLoader) LoadFloors(floors []source.Location) {
	for _, rec := range floors {
		if h.cfg.Debug {
			h.log.Info("Loading floor", zap.String("name", rec.Name), zap.String("id", rec.ID))
		}

		parent, ok := h.index.Parent(rec.ID)
		if !ok {
			h.log.Warn("Parent of floor can't be found so will be skipped", zap.String("floor", rec.Name))
			continue
		}
		building, ok := h.Building(parent.Name)
		if !ok {
			h.log.Warn("Building for floor is not loaded so floor will be skipped",
				zap.String("floor", rec.Name), zap.String("building", parent.Name),
				zap.Error(store.ErrMissingParent))
			continue
		}

		h.loadFloor(building, domain.Floor{
			Name:     domain.FloorName(building.Name, rec.Name),
			Building: building.Name,
			Tenant:   h.cfg.Tenant,
		})
	}
}

func (h *HierarchyLoader) loadFloor(building domain.Building, f domain.Floor) {
	buildingRef := domain.RefOf(building)
	if !h.store.Has(buildingRef) {
		h.log.Warn("Building for floor is not loaded so floor will be skipped",
			zap.String("floor", f.Name), zap.Error(store.ErrMissingParent))
		return
	}

	node, created, err := h.store.Upsert(f)
	if err != nil {
		h.log.Warn("Unable to load floor", zap.String("name", f.Name), zap.Error(err))
		return
	}
	if !created {
		h.log.Warn("Floor already loaded so skipping", zap.String("name", f.Name))
		return
	}
	if err := h.store.InsertChild(buildingRef, domain.RefOf(node)); err != nil {
		if errors.Is(err, store.ErrMissingParent) {
			h.log.Warn("Floor parent disappeared", zap.String("name", f.Name), zap.Error(err))
			return
		}
		h.log.Warn("Unable to link floor to building", zap.String("name", f.Name), zap.Error(err))
	}
}

// LoadController seeds the location the controller itself is installed in
func (h *HierarchyLoader) LoadController(loc *config.ControllerLocation) {
	if loc == nil {
		return
	}

	area := h.normalize(loc.Area)
	areaParent := h.normalize(loc.AreaParent)
	if area != "" {
		if _, err := h.ensureNamedArea(area, areaParent, 0); err != nil {
			h.log.Warn("Unable to load controller area", zap.String("area", area), zap.Error(err))
		}
	}

	if loc.Building == "" {
		return
	}
	h.loadBuilding(loc.Building, domain.Building{
		Name:       loc.Building,
		Area:       area,
		Address:    loc.Address,
		AreaParent: areaParent,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Tenant:     h.cfg.Tenant,
	})

	if loc.Floor == "" {
		return
	}
	building, ok := h.Building(loc.Building)
	if !ok {
		return
	}
	h.loadFloor(building, domain.Floor{
		Name:     loc.Floor,
		Building: building.Name,
		Tenant:   h.cfg.Tenant,
	})
}
