package mapspec

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/thoreinstein/plugkit/internal/validator"
)

var knownUnits = []string{"meters", "m", "centimeters", "cm", "feet", "ft", "units"}

// Validate checks the spec's references, geometry and opening placement.
// All problems are collected; it never stops at the first.
func Validate(s *Spec) *validator.Result {
	c := &checker{
		spec:        s,
		r:           validator.NewResult(""),
		ids:         make(map[string]string),
		floors:      make(map[string]*Floor),
		rooms:       make(map[string]*Room),
		openings:    make(map[string]*Opening),
		connections: make(map[string]*Connection),
		structures:  make(map[string]*Structure),
	}

	c.checkHeader()
	c.indexIDs()
	c.checkFloors()
	c.checkRooms()
	c.checkConnections()
	c.checkOpenings()
	c.checkStructures()

	c.r.AddInfo("", fmt.Sprintf("%d floors, %d rooms, %d openings, %d connections, %d structures",
		len(s.Floors), len(s.Rooms), len(s.Openings), len(s.Connections), len(s.Structures)), nil)
	return c.r
}

type checker struct {
	spec *Spec
	r    *validator.Result

	// ids maps every declared id to the field that declared it first.
	ids         map[string]string
	floors      map[string]*Floor
	rooms       map[string]*Room
	openings    map[string]*Opening
	connections map[string]*Connection
	structures  map[string]*Structure
}

func (c *checker) errorf(field, id string, value any, format string, args ...any) {
	c.add(validator.SeverityError, field, id, value, format, args...)
}

func (c *checker) warnf(field, id string, value any, format string, args ...any) {
	c.add(validator.SeverityWarning, field, id, value, format, args...)
}

func (c *checker) add(sev validator.Severity, field, id string, value any, format string, args ...any) {
	issue := validator.Issue{
		Severity: sev,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Value:    value,
	}
	if id != "" {
		issue.Context = map[string]string{"id": id}
	}
	c.r.Add(issue)
}

func (c *checker) checkHeader() {
	if c.spec.Name == "" {
		c.warnf("name", "", nil, "map name is recommended")
	}
	if c.spec.Units != "" && !slices.Contains(knownUnits, c.spec.Units) {
		c.warnf("units", "", c.spec.Units, "unrecognised units")
	}
	if len(c.spec.Floors) == 0 {
		c.errorf("floors", "", nil, "at least one floor is required")
	}
	if len(c.spec.Rooms) == 0 {
		c.warnf("rooms", "", nil, "map has no rooms")
	}
}

// indexIDs checks that every id is present and unique across the document,
// and builds the lookup tables used by the reference checks.
func (c *checker) indexIDs() {
	claim := func(field, id string) bool {
		if id == "" {
			c.errorf(field+".id", "", nil, "id is required")
			return false
		}
		if prev, ok := c.ids[id]; ok {
			c.errorf(field+".id", id, id, "duplicate id, first declared at %s", prev)
			return false
		}
		c.ids[id] = field
		return true
	}

	for i := range c.spec.Floors {
		f := &c.spec.Floors[i]
		if claim(fmt.Sprintf("floors[%d]", i), f.ID) {
			c.floors[f.ID] = f
		}
	}
	for i := range c.spec.Rooms {
		r := &c.spec.Rooms[i]
		if claim(fmt.Sprintf("rooms[%d]", i), r.ID) {
			c.rooms[r.ID] = r
		}
	}
	for i := range c.spec.Openings {
		o := &c.spec.Openings[i]
		if claim(fmt.Sprintf("openings[%d]", i), o.ID) {
			c.openings[o.ID] = o
		}
	}
	for i := range c.spec.Connections {
		cn := &c.spec.Connections[i]
		if claim(fmt.Sprintf("connections[%d]", i), cn.ID) {
			c.connections[cn.ID] = cn
		}
	}
	for i := range c.spec.Structures {
		st := &c.spec.Structures[i]
		if claim(fmt.Sprintf("structures[%d]", i), st.ID) {
			c.structures[st.ID] = st
		}
	}
}

func (c *checker) checkFloors() {
	for i, f := range c.spec.Floors {
		field := fmt.Sprintf("floors[%d]", i)
		if f.Height <= 0 {
			c.errorf(field+".height", f.ID, f.Height, "floor height must be positive")
		}
	}
}

// roomHeight returns the room's own height or, when zero, its floor's.
func (c *checker) roomHeight(r *Room) float64 {
	if r.Height != 0 {
		return r.Height
	}
	if f, ok := c.floors[r.FloorID]; ok {
		return f.Height
	}
	return 0
}

func shapeOf(r *Room) Shape {
	if r.Shape == "" {
		return ShapeBox
	}
	return r.Shape
}

func (c *checker) checkRooms() {
	for i := range c.spec.Rooms {
		r := &c.spec.Rooms[i]
		field := fmt.Sprintf("rooms[%d]", i)

		switch {
		case r.FloorID == "":
			c.errorf(field+".floor_id", r.ID, nil, "floor_id is required")
		case c.floors[r.FloorID] == nil:
			c.errorf(field+".floor_id", r.ID, r.FloorID, "unknown floor")
		}

		switch {
		case r.Height < 0:
			c.errorf(field+".height", r.ID, r.Height, "room height must be positive")
		case r.Height == 0 && c.roomHeight(r) <= 0:
			c.errorf(field+".height", r.ID, nil, "room height is missing and cannot be inherited from its floor")
		}

		if r.Walls.Thickness < 0 {
			c.errorf(field+".walls.thickness", r.ID, r.Walls.Thickness, "wall thickness cannot be negative")
		}

		switch shapeOf(r) {
		case ShapeBox:
			c.checkBox(field, r)
		case ShapePolygon:
			c.checkPolygon(field, r)
		default:
			c.errorf(field+".shape", r.ID, r.Shape, "shape must be box or polygon")
		}
	}
}

func (c *checker) checkBox(field string, r *Room) {
	if r.Size.Width <= 0 {
		c.errorf(field+".size.width", r.ID, r.Size.Width, "width must be positive")
	}
	if r.Size.Depth <= 0 {
		c.errorf(field+".size.depth", r.ID, r.Size.Depth, "depth must be positive")
	}
	if len(r.Vertices) > 0 {
		c.warnf(field+".vertices", r.ID, nil, "vertices are ignored for box rooms")
	}
	for j, w := range r.Walls.Omit {
		if !slices.Contains(Directions(), Direction(w)) {
			c.errorf(fmt.Sprintf("%s.walls.omit[%d]", field, j), r.ID, w, "box rooms omit walls by direction (north, south, east, west)")
		}
	}
}

func (c *checker) checkPolygon(field string, r *Room) {
	n := len(r.Vertices)
	if n < 3 {
		c.errorf(field+".vertices", r.ID, n, "polygon rooms need at least 3 vertices")
		return
	}

	repeated := false
	for j := range n {
		if samePoint(r.Vertices[j], r.Vertices[(j+1)%n]) {
			c.errorf(fmt.Sprintf("%s.vertices[%d]", field, (j+1)%n), r.ID, nil, "vertex repeats the previous vertex")
			repeated = true
		}
	}
	if repeated {
		return
	}

	if math.Abs(SignedArea(r.Vertices)) <= epsilon {
		c.errorf(field+".vertices", r.ID, nil, "polygon has zero area")
		return
	}
	if a, b, ok := SelfIntersection(r.Vertices); ok {
		c.errorf(field+".vertices", r.ID, nil, "polygon is self-intersecting: segments %d and %d cross", a, b)
	}

	for j, w := range r.Walls.Omit {
		idx, err := strconv.Atoi(w)
		if err != nil || idx < 0 || idx >= n {
			c.errorf(fmt.Sprintf("%s.walls.omit[%d]", field, j), r.ID, w, "polygon rooms omit walls by segment index 0..%d", n-1)
		}
	}
	if r.Size != (Footprint{}) {
		c.warnf(field+".size", r.ID, nil, "size is ignored for polygon rooms")
	}
}

func (c *checker) checkConnections() {
	for i := range c.spec.Connections {
		cn := &c.spec.Connections[i]
		field := fmt.Sprintf("connections[%d]", i)

		c.requireRoom(field+".room_a", cn.ID, cn.RoomA)
		c.requireRoom(field+".room_b", cn.ID, cn.RoomB)
		if cn.RoomA != "" && cn.RoomA == cn.RoomB {
			c.errorf(field+".room_b", cn.ID, cn.RoomB, "a connection must join two different rooms")
		}

		if cn.WallOwner != "" && cn.WallOwner != cn.RoomA && cn.WallOwner != cn.RoomB {
			c.errorf(field+".wall_owner", cn.ID, cn.WallOwner, "wall_owner must be room_a or room_b")
		}

		if cn.StructureID != "" && c.structures[cn.StructureID] == nil {
			c.errorf(field+".structure_id", cn.ID, cn.StructureID, "unknown structure")
		}

		if cn.OpeningID != "" {
			o := c.openings[cn.OpeningID]
			switch {
			case o == nil:
				c.errorf(field+".opening_id", cn.ID, cn.OpeningID, "unknown opening")
			case cn.WallOwner == "":
				c.errorf(field+".wall_owner", cn.ID, nil, "wall_owner is required when the connection has an opening")
			case o.ConnectionID != "" && o.ConnectionID != cn.ID:
				c.errorf(field+".opening_id", cn.ID, cn.OpeningID, "opening belongs to connection %s", o.ConnectionID)
			case o.RoomID != "" && o.RoomID != cn.WallOwner:
				c.errorf(field+".opening_id", cn.ID, cn.OpeningID, "opening is hosted by %s but the wall owner is %s", o.RoomID, cn.WallOwner)
			}
		}

		a, b := c.rooms[cn.RoomA], c.rooms[cn.RoomB]
		if a != nil && b != nil && a.FloorID != b.FloorID && cn.StructureID == "" {
			c.warnf(field, cn.ID, nil, "rooms are on different floors but no structure links them")
		}
	}
}

func (c *checker) requireRoom(field, id, roomID string) {
	switch {
	case roomID == "":
		c.errorf(field, id, nil, "room is required")
	case c.rooms[roomID] == nil:
		c.errorf(field, id, roomID, "unknown room")
	}
}

func (c *checker) checkOpenings() {
	for i := range c.spec.Openings {
		o := &c.spec.Openings[i]
		field := fmt.Sprintf("openings[%d]", i)

		switch o.Type {
		case OpeningDoor, OpeningWindow, OpeningArchway:
		default:
			c.errorf(field+".type", o.ID, o.Type, "type must be door, window or archway")
		}

		if o.PositionOnWall < 0 || o.PositionOnWall > 1 {
			c.errorf(field+".position_on_wall", o.ID, o.PositionOnWall, "position_on_wall must be between 0 and 1")
		}
		if o.Size.Width <= 0 {
			c.errorf(field+".size.width", o.ID, o.Size.Width, "width must be positive")
		}
		if o.Size.Height <= 0 {
			c.errorf(field+".size.height", o.ID, o.Size.Height, "height must be positive")
		}
		if o.BottomOffset < 0 {
			c.errorf(field+".bottom_offset", o.ID, o.BottomOffset, "bottom_offset cannot be negative")
		}
		if o.Type == OpeningDoor && o.BottomOffset > 0 {
			c.warnf(field+".bottom_offset", o.ID, o.BottomOffset, "door does not start at floor level")
		}

		host := c.openingHost(field, o)
		if host == nil {
			continue
		}
		c.checkPlacement(field, o, host)
	}
}

// openingHost resolves the room whose wall carries o. It reports and
// returns nil when the host cannot be determined.
func (c *checker) openingHost(field string, o *Opening) *Room {
	switch {
	case o.RoomID != "" && o.ConnectionID != "":
		c.errorf(field, o.ID, nil, "set either room_id or connection_id, not both")
		return nil
	case o.RoomID == "" && o.ConnectionID == "":
		c.errorf(field, o.ID, nil, "room_id or connection_id is required")
		return nil
	case o.RoomID != "":
		r := c.rooms[o.RoomID]
		if r == nil {
			c.errorf(field+".room_id", o.ID, o.RoomID, "unknown room")
		}
		return r
	}

	cn := c.connections[o.ConnectionID]
	if cn == nil {
		c.errorf(field+".connection_id", o.ID, o.ConnectionID, "unknown connection")
		return nil
	}
	if cn.WallOwner == "" {
		c.errorf(field+".connection_id", o.ID, o.ConnectionID, "connection has no wall_owner to host the opening")
		return nil
	}
	return c.rooms[cn.WallOwner]
}

func (c *checker) checkPlacement(field string, o *Opening, host *Room) {
	var (
		length  float64
		wallKey string
	)

	switch shapeOf(host) {
	case ShapeBox:
		if o.WallSegmentIndex != nil {
			c.warnf(field+".wall_segment_index", o.ID, *o.WallSegmentIndex, "wall_segment_index is ignored for box rooms")
		}
		if !slices.Contains(Directions(), o.WallDirection) {
			c.errorf(field+".wall_direction", o.ID, o.WallDirection, "wall_direction must be north, south, east or west")
			return
		}
		length = WallLength(host.Size, o.WallDirection)
		wallKey = string(o.WallDirection)

	case ShapePolygon:
		if o.WallDirection != "" {
			c.warnf(field+".wall_direction", o.ID, o.WallDirection, "wall_direction is ignored for polygon rooms")
		}
		segs := Segments(host.Vertices)
		if o.WallSegmentIndex == nil {
			c.errorf(field+".wall_segment_index", o.ID, nil, "wall_segment_index is required for polygon rooms")
			return
		}
		idx := *o.WallSegmentIndex
		if idx < 0 || idx >= len(segs) {
			c.errorf(field+".wall_segment_index", o.ID, idx, "wall_segment_index out of range 0..%d", len(segs)-1)
			return
		}
		length = segs[idx].Length()
		wallKey = strconv.Itoa(idx)

	default:
		return
	}

	if slices.Contains(host.Walls.Omit, wallKey) {
		c.warnf(field, o.ID, wallKey, "opening is on an omitted wall of room %s", host.ID)
	}

	if length > 0 && o.Size.Width > 0 {
		if o.Size.Width > length+epsilon {
			c.errorf(field+".size.width", o.ID, o.Size.Width, "opening is wider than its wall (%.2f)", length)
		} else if o.PositionOnWall >= 0 && o.PositionOnWall <= 1 {
			centre := o.PositionOnWall * length
			half := o.Size.Width / 2
			if centre-half < -epsilon || centre+half > length+epsilon {
				c.errorf(field+".position_on_wall", o.ID, o.PositionOnWall, "opening extends past the end of its wall")
			}
		}
	}

	if h := c.roomHeight(host); h > 0 && o.Size.Height > 0 && o.BottomOffset >= 0 {
		if top := o.BottomOffset + o.Size.Height; top > h+epsilon {
			c.errorf(field+".size.height", o.ID, top, "opening top exceeds room height (%.2f)", h)
		}
	}
}

func (c *checker) checkStructures() {
	for i := range c.spec.Structures {
		st := &c.spec.Structures[i]
		field := fmt.Sprintf("structures[%d]", i)

		switch st.Type {
		case StructureStairs, StructureRamp, StructureElevator, StructurePillar:
		default:
			c.errorf(field+".type", st.ID, st.Type, "type must be stairs, ramp, elevator or pillar")
		}

		switch {
		case st.FloorID == "":
			c.errorf(field+".floor_id", st.ID, nil, "floor_id is required")
		case c.floors[st.FloorID] == nil:
			c.errorf(field+".floor_id", st.ID, st.FloorID, "unknown floor")
		}

		switch {
		case st.ToFloorID == "":
			if st.Type == StructureStairs || st.Type == StructureElevator {
				c.errorf(field+".to_floor_id", st.ID, nil, "%s must lead to another floor", st.Type)
			}
		case c.floors[st.ToFloorID] == nil:
			c.errorf(field+".to_floor_id", st.ID, st.ToFloorID, "unknown floor")
		case st.ToFloorID == st.FloorID:
			c.errorf(field+".to_floor_id", st.ID, st.ToFloorID, "to_floor_id must differ from floor_id")
		}

		if st.Size.Width <= 0 {
			c.errorf(field+".size.width", st.ID, st.Size.Width, "width must be positive")
		}
		if st.Size.Depth <= 0 {
			c.errorf(field+".size.depth", st.ID, st.Size.Depth, "depth must be positive")
		}
	}
}
