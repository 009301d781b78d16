package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aidekit/aide/internal/value"
)

// reservedKeys are system bookkeeping fields that never participate in
// schema validation.
var reservedKeys = map[string]bool{
	"_schema":      true,
	"_pos":         true,
	"_view":        true,
	"_removed":     true,
	"_created_seq": true,
	"_updated_seq": true,
	"_shape":       true,
}

// IsReservedKey reports whether key is a reserved system field.
func IsReservedKey(key string) bool { return reservedKeys[key] }

// ValidateFields checks entity field values against a parsed interface and
// returns human-readable problems. Record-valued children are validated
// independently against their own schemas, so only container shape is
// checked here.
func ValidateFields(fields map[string]value.Value, iface *Interface) []string {
	if iface == nil {
		return []string{"no interface to validate against"}
	}

	var errs []string
	for _, name := range iface.Order {
		decl := iface.Fields[name]
		val, present := fields[name]
		if !present || val.IsNull() {
			if !decl.Optional {
				errs = append(errs, fmt.Sprintf("field %q is required", name))
			}
			continue
		}
		errs = append(errs, checkType(name, val, decl.Type)...)
	}

	var unknown []string
	for name := range fields {
		if reservedKeys[name] {
			continue
		}
		if _, declared := iface.Fields[name]; !declared {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, fmt.Sprintf("field %q is not declared by %s", name, iface.Name))
	}
	return errs
}

func checkType(name string, val value.Value, ft FieldType) []string {
	switch ft.Kind {
	case TypeString, TypeDate:
		if val.Kind() != value.KindString {
			return []string{typeError(name, "string", val)}
		}
	case TypeNumber:
		if val.Kind() != value.KindNumber {
			return []string{typeError(name, "number", val)}
		}
	case TypeBoolean:
		if val.Kind() != value.KindBool {
			return []string{typeError(name, "boolean", val)}
		}
	case TypeUnion:
		if val.Kind() != value.KindString {
			return []string{typeError(name, "string", val)}
		}
		for _, literal := range ft.Allowed {
			if val.Str() == literal {
				return nil
			}
		}
		return []string{fmt.Sprintf("field %q must be one of %q, got %q", name, strings.Join(ft.Allowed, ", "), val.Str())}
	case TypeArray:
		if val.Kind() != value.KindArray {
			return []string{typeError(name, "array", val)}
		}
		var errs []string
		for i, item := range val.Items() {
			errs = append(errs, checkType(fmt.Sprintf("%s[%d]", name, i), item, *ft.Elem)...)
		}
		return errs
	case TypeRecord, TypeCustom:
		if val.Kind() != value.KindObject {
			return []string{typeError(name, "object", val)}
		}
	}
	return nil
}

func typeError(name, want string, got value.Value) string {
	return fmt.Sprintf("field %q must be a %s, got %s", name, want, got.Kind())
}
