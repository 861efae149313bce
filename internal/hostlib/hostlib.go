// Package hostlib registers the host classes shipped with pyhost.
package hostlib

import (
	"fmt"
	"sort"

	"github.com/funvibe/pyhost/internal/hostbridge"
)

// packages maps a host package name to the function registering its classes.
var packages = map[string]func(*hostbridge.Registry) error{
	"uuid":    RegisterUUID,
	"sqlite":  RegisterSQLite,
	"strings": RegisterStrings,
}

// Packages lists the available host package names.
func Packages() []string {
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds every package accepted by enabled to reg. A nil enabled
// registers all of them.
func Register(reg *hostbridge.Registry, enabled func(pkg string) bool) error {
	for _, name := range Packages() {
		if enabled != nil && !enabled(name) {
			continue
		}
		if err := packages[name](reg); err != nil {
			return fmt.Errorf("registering host package %s: %w", name, err)
		}
	}
	return nil
}
