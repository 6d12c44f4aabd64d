// Package export tabulates extracted records into CSV. Each page's record
// set becomes one row; the column set is the union of every key seen, in
// order of first appearance, so pages with differing keys still line up.
package export
