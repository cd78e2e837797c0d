package problem

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

// ErrUnknownBuiltin is returned by Builtin for names without a fixture.
var ErrUnknownBuiltin = errors.New("problem: unknown builtin")

//go:embed builtin/*.yaml
var builtins embed.FS

// Builtins lists the names of the bundled tasks in lexical order.
func Builtins() []string {
	entries, err := builtins.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// BuiltinDescription returns the parsed description of a bundled task.
func BuiltinDescription(name string) (*Description, error) {
	data, err := builtins.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuiltin, name)
	}
	return Parse(data)
}

// Builtin builds a bundled task.
func Builtin(name string) (*explicit.Problem, error) {
	d, err := BuiltinDescription(name)
	if err != nil {
		return nil, err
	}
	return d.Build()
}

// Resolve loads ref as a builtin when it carries the "builtin:" prefix and
// as a file path otherwise.
func Resolve(ref string) (*explicit.Problem, error) {
	if name, ok := strings.CutPrefix(ref, "builtin:"); ok {
		return Builtin(name)
	}
	return LoadFile(ref)
}
