// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	WheelNotFoundId Id = iota + 1
	PatternNotFoundId
	InvalidWheelId
	ToolNotFoundId
	ToolFailedId
	UnsupportedBinaryId
	ConfigLoadFailedId
	ProbeFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue Markdown with the given glamour style ("dark",
// "light", "notty", or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	wheelNotFoundIssue = &Issue{
		id: WheelNotFoundId,
		mdMsg: `
# No wheel found!

The path you passed is a directory, and no wheel for the configured
distribution was found inside it.

## Things you can try:
- Pass the wheel file directly:
~~~
$ edit-wheel preprocess dist/lldb_python-19.1.0-cp312-cp312-macosx_11_0_arm64.whl
~~~
- Check the distribution name with ` + "`--dist`" + ` or ` + "`--project pyproject.toml`" + `
- Run ` + "`edit-wheel config show`" + ` to see the patterns in use`,
		extLinks: []HttpLink{"https://packaging.python.org/en/latest/specifications/binary-distribution-format/"},
	}

	patternNotFoundIssue = &Issue{
		id: PatternNotFoundId,
		mdMsg: `
# Expected file or directory is missing from the wheel!

A glob pattern that the recipe relies on matched nothing in the unpacked tree.
The wheel probably was not produced by the expected build, or it was already
edited with a different recipe.

## Things you can try:
- List the wheel contents:
~~~
$ unzip -l <wheel>
~~~
- Adjust the pattern in your config file (` + "`preprocess`" + ` / ` + "`postprocess`" + ` sections)`,
	}

	invalidWheelIssue = &Issue{
		id: InvalidWheelId,
		mdMsg: `
# The archive is not a valid wheel!

The file name or its metadata does not follow the wheel format.

## Things you can try:
- Rebuild the wheel
- Make sure the file name looks like ` + "`{dist}-{version}-{python}-{abi}-{platform}.whl`",
		extLinks: []HttpLink{"https://packaging.python.org/en/latest/specifications/binary-distribution-format/"},
	}

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# Required tool not found!

A command-line tool needed for this step is not installed or not in your PATH.

## Tools used by edit-wheel:
- macOS wheels: ` + "`otool`" + `, ` + "`install_name_tool`" + ` (Xcode command line tools) and ` + "`delocate-listdeps`" + ` (pip install delocate)
- Linux wheels: ` + "`patchelf`" + `
- verify: ` + "`cmake`" + ` and a Python interpreter with the lldb binding

## Things you can try:
- Install the tool and retry
- Point edit-wheel at it in your config file:
~~~cue
tools: {
	patchelf: "/opt/patchelf/bin/patchelf"
}
~~~`,
	}

	toolFailedIssue = &Issue{
		id: ToolFailedId,
		mdMsg: `
# External tool failed!

A subprocess exited with a non-zero status. Its error output is shown above.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see every command line
- Run the failing command by hand against the unpacked wheel`,
	}

	unsupportedBinaryIssue = &Issue{
		id: UnsupportedBinaryId,
		mdMsg: `
# Unsupported binary format!

The shared library is neither Mach-O nor ELF, so its load paths cannot be patched.

## Things you can try:
- Force a backend with ` + "`--backend macho`" + ` or ` + "`--backend elf`" + `
- Check the ` + "`postprocess.shared_lib`" + ` pattern in your config file`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema, or an
` + "`EDITWHEEL_*`" + ` environment variable holds an invalid value.

## Things you can try:
- Fix the file named above, or point at another one:
~~~
$ edit-wheel --config ./config.cue preprocess dist
~~~
- Unset the overrides and retry:
~~~
$ env | grep ^EDITWHEEL_
$ unset EDITWHEEL_POSTPROCESS_BACKEND
~~~`,
	}

	probeFailedIssue = &Issue{
		id: ProbeFailedId,
		mdMsg: `
# Debugger smoke test failed!

At least one check against the debugger binding did not pass.

## Things you can try:
- Make sure the binding imports: ` + "`python3 -c 'import lldb'`" + `
- Inside containers, run with ` + "`--cap-add=SYS_PTRACE`" + ` or an equivalent seccomp profile
- Re-run with ` + "`--verbose`" + ` to see the raw probe output`,
		extLinks: []HttpLink{"https://discourse.llvm.org/t/running-lldb-in-a-container"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

edit-wheel could not read the wheel or write the destination directory.

## Things you can try:
- Check file and directory permissions
- Choose another destination with ` + "`--dest-dir`",
	}

	issues = map[Id]*Issue{
		wheelNotFoundIssue.Id():     wheelNotFoundIssue,
		patternNotFoundIssue.Id():   patternNotFoundIssue,
		invalidWheelIssue.Id():      invalidWheelIssue,
		toolNotFoundIssue.Id():      toolNotFoundIssue,
		toolFailedIssue.Id():        toolFailedIssue,
		unsupportedBinaryIssue.Id(): unsupportedBinaryIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		probeFailedIssue.Id():       probeFailedIssue,
		permissionDeniedIssue.Id():  permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
