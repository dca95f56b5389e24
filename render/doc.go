// Package render draws a rotating wireframe cube with a text overlay.
//
// Each frame clears the canvas, rotates the eight cube corners about the X
// axis then the Y axis, projects them orthographically with a scale of 20
// around the center of a 128x64 surface, draws the twelve edges and the
// text, and flushes. The angles then advance by a fixed step and wrap into
// [0, 2π).
//
// Projected coordinates below 0 saturate at 0 and coordinates above 255 at
// 255; anything past the surface edge is clipped by the canvas.
package render
