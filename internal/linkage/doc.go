// SPDX-License-Identifier: MPL-2.0

// Package linkage rewrites the dynamic-library load paths of a shared library
// inside an unpacked wheel so that it resolves its dependencies from the
// library directory bundled with the wheel.
//
// Mach-O libraries are inspected with otool and patched with
// install_name_tool, using delocate-listdeps to learn which libraries were
// bundled. ELF libraries are inspected and patched with patchelf against the
// auditwheel-style {dist}.libs directory.
package linkage
