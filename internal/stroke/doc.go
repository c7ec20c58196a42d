// Package stroke converts a polyline centerline with a width into boundary
// polygons.
//
// The expander works in the XY plane of the polyline. Offset points keep the
// Z coordinate of the centerline vertex they were derived from.
//
// # Algorithm Overview
//
// Stroke expansion builds two parallel offset chains:
//   - Forward chain: offset to the right of the direction of travel
//   - Backward chain: offset to the left of the direction of travel
//
// For an open polyline the single boundary ring is:
//  1. Forward chain from start to end
//  2. End cap from the forward side around to the backward side
//  3. Backward chain reversed
//  4. Start cap back to the first forward point
//
// A closed polyline produces two rings: the forward chain and the reversed
// backward chain, with a join at the seam vertex and no caps.
//
// # Line Caps
//
//   - CapButt: flat end exactly at the endpoint
//   - CapRound: semicircle with radius width/2
//   - CapSquare: flat end extended width/2 beyond the endpoint
//
// # Line Joins
//
//   - JoinMiter: offset lines extended until they meet, falling back to a
//     bevel when the miter would exceed MiterLimit × width/2
//   - JoinRound: circular fillet around the vertex
//   - JoinBevel: straight segment across the corner
//
// Only the outer side of a turn receives join geometry. The inner side
// connects the two offset segments directly, so the ring may self-overlap
// on sharp inner corners; it is meant to be filled with the nonzero rule.
//
// # References
//
// The join and miter-limit logic follows tiny-skia (path/src/stroker.rs) and
// kurbo (src/stroke.rs).
package stroke
