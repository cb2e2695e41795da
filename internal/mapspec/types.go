package mapspec

// Shape is a room footprint type.
type Shape string

// Room shapes.
const (
	ShapeBox     Shape = "box"
	ShapePolygon Shape = "polygon"
)

// Direction names a wall of a box room. North is +Z, east is +X.
type Direction string

// Box room walls.
const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions returns the wall directions in a fixed order.
func Directions() []Direction {
	return []Direction{North, South, East, West}
}

// OpeningType is the kind of hole cut into a wall.
type OpeningType string

// Opening types.
const (
	OpeningDoor    OpeningType = "door"
	OpeningWindow  OpeningType = "window"
	OpeningArchway OpeningType = "archway"
)

// StructureType is a free-standing or floor-spanning element.
type StructureType string

// Structure types.
const (
	StructureStairs   StructureType = "stairs"
	StructureRamp     StructureType = "ramp"
	StructureElevator StructureType = "elevator"
	StructurePillar   StructureType = "pillar"
)

// Spec is a complete map document.
type Spec struct {
	Name string `json:"name" yaml:"name"`
	// Units is informational; all lengths share it. Defaults to meters.
	Units       string       `json:"units,omitempty" yaml:"units,omitempty"`
	Floors      []Floor      `json:"floors" yaml:"floors"`
	Rooms       []Room       `json:"rooms" yaml:"rooms"`
	Openings    []Opening    `json:"openings,omitempty" yaml:"openings,omitempty"`
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
	Structures  []Structure  `json:"structures,omitempty" yaml:"structures,omitempty"`
}

// Floor is one storey.
type Floor struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
	Height    float64 `json:"height" yaml:"height"`
}

// Vec3 is a world-space position.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vertex is a room-local footprint point on the XZ plane.
type Vertex struct {
	X float64 `json:"x" yaml:"x"`
	Z float64 `json:"z" yaml:"z"`
}

// Footprint is a box size on the XZ plane.
type Footprint struct {
	Width float64 `json:"width" yaml:"width"`
	Depth float64 `json:"depth" yaml:"depth"`
}

// Walls controls wall generation for a room.
type Walls struct {
	Thickness float64 `json:"thickness,omitempty" yaml:"thickness,omitempty"`
	// Omit lists walls not to build: directions for box rooms, segment
	// indexes ("0", "1", ...) for polygon rooms.
	Omit []string `json:"omit,omitempty" yaml:"omit,omitempty"`
}

// Surfaces names the materials applied to a room.
type Surfaces struct {
	Floor   string `json:"floor,omitempty" yaml:"floor,omitempty"`
	Ceiling string `json:"ceiling,omitempty" yaml:"ceiling,omitempty"`
	Walls   string `json:"walls,omitempty" yaml:"walls,omitempty"`
}

// Room is an enclosed space on one floor. Position is the room origin;
// box rooms extend Size.Width along +X and Size.Depth along +Z from it and
// polygon vertices are relative to it.
type Room struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	FloorID  string    `json:"floor_id" yaml:"floor_id"`
	Shape    Shape     `json:"shape" yaml:"shape"`
	Position Vec3      `json:"position" yaml:"position"`
	Size     Footprint `json:"size,omitzero" yaml:"size,omitempty"`
	// Height of zero inherits the floor height.
	Height   float64  `json:"height,omitempty" yaml:"height,omitempty"`
	Vertices []Vertex `json:"vertices,omitempty" yaml:"vertices,omitempty"`
	Walls    Walls    `json:"walls,omitzero" yaml:"walls,omitempty"`
	Surfaces Surfaces `json:"surfaces,omitzero" yaml:"surfaces,omitempty"`
}

// OpeningSize is the clear width and height of an opening.
type OpeningSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Opening is a door, window or archway in a wall. It is hosted either by
// RoomID or by the wall owner of ConnectionID, and located on the host's
// wall by WallDirection (box) or WallSegmentIndex (polygon).
type Opening struct {
	ID               string      `json:"id" yaml:"id"`
	Type             OpeningType `json:"type" yaml:"type"`
	RoomID           string      `json:"room_id,omitempty" yaml:"room_id,omitempty"`
	WallDirection    Direction   `json:"wall_direction,omitempty" yaml:"wall_direction,omitempty"`
	WallSegmentIndex *int        `json:"wall_segment_index,omitempty" yaml:"wall_segment_index,omitempty"`
	ConnectionID     string      `json:"connection_id,omitempty" yaml:"connection_id,omitempty"`
	// PositionOnWall is the opening centre as a fraction of the wall length.
	PositionOnWall float64     `json:"position_on_wall" yaml:"position_on_wall"`
	Size           OpeningSize `json:"size" yaml:"size"`
	BottomOffset   float64     `json:"bottom_offset,omitempty" yaml:"bottom_offset,omitempty"`
}

// Connection links two rooms. WallOwner is the room whose wall carries the
// shared opening.
type Connection struct {
	ID          string `json:"id" yaml:"id"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	RoomA       string `json:"room_a" yaml:"room_a"`
	RoomB       string `json:"room_b" yaml:"room_b"`
	WallOwner   string `json:"wall_owner,omitempty" yaml:"wall_owner,omitempty"`
	OpeningID   string `json:"opening_id,omitempty" yaml:"opening_id,omitempty"`
	StructureID string `json:"structure_id,omitempty" yaml:"structure_id,omitempty"`
}

// Structure is stairs, a ramp, an elevator or a pillar.
type Structure struct {
	ID        string        `json:"id" yaml:"id"`
	Type      StructureType `json:"type" yaml:"type"`
	FloorID   string        `json:"floor_id" yaml:"floor_id"`
	ToFloorID string        `json:"to_floor_id,omitempty" yaml:"to_floor_id,omitempty"`
	Position  Vec3          `json:"position" yaml:"position"`
	Size      Footprint     `json:"size" yaml:"size"`
	Height    float64       `json:"height,omitempty" yaml:"height,omitempty"`
}
