// Package mapspec loads and validates map builder documents.
//
// A document describes floors, rooms, the openings cut into room walls,
// connections between rooms and floor-spanning structures. Documents are
// JSON or YAML; the encoding is chosen by file extension.
//
// Coordinates are right-handed with Y up. Box rooms extend from their
// position along +X (width) and +Z (depth); north is the +Z wall and east
// the +X wall. Polygon vertices are room-local points on the XZ plane, and
// wall segment i runs from vertex i to vertex i+1.
//
// [Validate] never stops at the first problem. IDs are unique across the
// whole document, not per collection.
package mapspec
