// SPDX-License-Identifier: MPL-2.0

// Command edit-wheel fixes up the layout and load paths of lldb_python wheels.
package main

import cmd "github.com/lldb-python/wheeledit/cmd/editwheel"

func main() {
	cmd.Execute()
}
