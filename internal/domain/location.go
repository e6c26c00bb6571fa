package domain

// Area is a region or campus grouping buildings and other areas
type Area struct {
	Name   string `json:"name" yaml:"name" validate:"required,max=100"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty" validate:"max=100"`
}

func (Area) Kind() Kind { return KindArea }
func (a Area) Key() Key { return Key{a.Name, a.Parent} }
func (Area) isNode()    {}

// Building is a site. Area is empty for a top-level building.
type Building struct {
	Name       string `json:"name" yaml:"name" validate:"required,max=100"`
	Area       string `json:"area,omitempty" yaml:"area,omitempty" validate:"max=100"`
	Address    string `json:"address,omitempty" yaml:"address,omitempty" validate:"max=200"`
	AreaParent string `json:"area_parent,omitempty" yaml:"area_parent,omitempty" validate:"max=100"`
	Latitude   string `json:"latitude,omitempty" yaml:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude  string `json:"longitude,omitempty" yaml:"longitude,omitempty" validate:"omitempty,longitude"`
	Tenant     string `json:"tenant,omitempty" yaml:"tenant,omitempty"`
}

func (Building) Kind() Kind { return KindBuilding }
func (b Building) Key() Key { return Key{b.Name, b.Area} }
func (Building) isNode()    {}

// Floor belongs to exactly one building. Name is "<building> - <floor>".
type Floor struct {
	Name     string `json:"name" yaml:"name" validate:"required,max=100"`
	Building string `json:"building" yaml:"building" validate:"required,max=100"`
	Tenant   string `json:"tenant,omitempty" yaml:"tenant,omitempty"`
}

func (Floor) Kind() Kind { return KindFloor }
func (f Floor) Key() Key { return Key{f.Name, f.Building} }
func (Floor) isNode()    {}

// FloorName builds the composite floor name used as the Floor key
func FloorName(building, floor string) string {
	return building + " - " + floor
}
