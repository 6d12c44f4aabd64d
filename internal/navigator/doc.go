// Package navigator turns navigate-rule output into stored link edges and
// newly registered pages. It normalizes discovered URLs before writing so
// that trivially different spellings of the same address collapse into one
// frontier entry.
package navigator
