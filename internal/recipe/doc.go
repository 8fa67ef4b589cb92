// SPDX-License-Identifier: MPL-2.0

// Package recipe implements the two wheel edits applied around delocation of
// the lldb_python wheel.
//
// Preprocess runs before delocate: it removes the redundant liblldb copies
// shipped in the wheel's data directory, moves the data/bin directory (which
// holds lldb-server) into site-packages, and rewrites RECORD to match.
// Postprocess runs after delocate: it points the extension module's load
// paths at the library directory delocate bundled into the wheel.
//
// Both recipes unpack into a scratch directory that is always removed, and
// repack the edited tree into the destination directory.
package recipe
