package hostlib

import (
	"reflect"
	"strings"

	"github.com/funvibe/pyhost/internal/hostbridge"
)

// RegisterStrings exposes strings.Builder.
func RegisterStrings(reg *hostbridge.Registry) error {
	return reg.Register(hostbridge.ClassSpec{
		Name: "strings.Builder",
		Type: reflect.TypeOf(strings.Builder{}),
		Constructors: []interface{}{
			func() *strings.Builder { return new(strings.Builder) },
			func(initial string) *strings.Builder {
				b := new(strings.Builder)
				b.WriteString(initial)
				return b
			},
		},
	})
}
