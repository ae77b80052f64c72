// Package layout scores how well a set of element boxes is organized.
//
// It works on plain box lists and knows nothing about images, so boxes
// from any detector can be scored. Analysis proceeds in three steps:
//
//   - FindAlignments clusters shared edges and centers into Groups.
//   - DetectGrids finds row/column arrangements among the groups.
//   - ComputeScore combines coverage, grid share, snap distance (Equalize),
//     small-cluster and overlap penalties into one value in [0, 1].
//
// Analyze runs all three. Every function is pure: inputs are never
// modified and there is no package state, so analyses may run concurrently.
package layout
