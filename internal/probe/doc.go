// SPDX-License-Identifier: MPL-2.0

// Package probe runs smoke checks against the lldb Python binding.
//
// A small C program is compiled with CMake and driven through the binding by
// an embedded Python script that reports one JSON result per check. Checks
// run either with a host interpreter (HostProbe) or inside a disposable
// container where the wheel is installed with pip (ContainerProbe).
package probe
