// SPDX-License-Identifier: MPL-2.0

// Package wheel reads and writes Python wheel archives.
//
// It covers the parts of the binary distribution format that an in-place
// editor needs: parsing wheel file names and WHEEL metadata, reading and
// writing RECORD manifests, unpacking an archive into a directory tree,
// locating files inside that tree with glob patterns, and packing the tree
// back into a correctly named wheel with a regenerated RECORD.
package wheel
