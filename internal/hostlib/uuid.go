package hostlib

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/funvibe/pyhost/internal/hostbridge"
)

// RegisterUUID exposes uuid.UUID. Calling the class parses its argument.
func RegisterUUID(reg *hostbridge.Registry) error {
	return reg.Register(hostbridge.ClassSpec{
		Name:         "uuid.UUID",
		Type:         reflect.TypeOf(uuid.UUID{}),
		Constructors: []interface{}{uuid.Parse},
		Statics: map[string]interface{}{
			"new":           uuid.New,
			"parse":         uuid.Parse,
			"sha1":          uuid.NewSHA1,
			"NIL":           uuid.Nil,
			"NAMESPACE_DNS": uuid.NameSpaceDNS,
			"NAMESPACE_URL": uuid.NameSpaceURL,
		},
	})
}
