// Package expansion expands ${prefix:key} references inside configuration
// values through the secrets registry.
package expansion

import (
	"context"
	"reflect"
	"strings"

	"github.com/animalet/devenv/pkg/config/secrets"
	"github.com/pkg/errors"
)

// ExpandVariables walks toExpand (a pointer) and replaces every ${ref} found
// in settable string fields, following nested structs, pointers, slices and
// maps. The first resolution failure stops the walk.
func ExpandVariables(ctx context.Context, toExpand any) error {
	if toExpand == nil {
		return nil
	}

	v := reflect.ValueOf(toExpand)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return expandValue(ctx, v.Elem())
	}
	return expandValue(ctx, v)
}

// ExpandString expands the ${ref} references in a single string. Anything
// else, bare $name tokens and surrounding whitespace included, is kept as
// written. An unterminated "${" is an error.
func ExpandString(ctx context.Context, s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var out strings.Builder
	rest := s
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:i])

		end := strings.IndexByte(rest[i+2:], '}')
		if end < 0 {
			return "", errors.Errorf("unterminated reference in %q", s)
		}
		ref := rest[i+2 : i+2+end]
		value, err := secrets.Resolve(ctx, ref)
		if err != nil {
			return "", errors.Wrap(err, "error resolving property")
		}
		out.WriteString(value)
		rest = rest[i+2+end+1:]
	}
}

func expandValue(ctx context.Context, val reflect.Value) error {
	switch val.Kind() {
	case reflect.String:
		if !val.CanSet() {
			return nil
		}
		expanded, err := ExpandString(ctx, val.String())
		if err != nil {
			return err
		}
		val.SetString(expanded)

	case reflect.Struct:
		for i := 0; i < val.NumField(); i++ {
			if err := expandValue(ctx, val.Field(i)); err != nil {
				return err
			}
		}

	case reflect.Ptr:
		if !val.IsNil() {
			return expandValue(ctx, val.Elem())
		}

	case reflect.Slice:
		for j := 0; j < val.Len(); j++ {
			if err := expandValue(ctx, val.Index(j)); err != nil {
				return err
			}
		}

	case reflect.Map:
		for _, key := range val.MapKeys() {
			// map values are not addressable; expand a copy and store it back
			newVal := reflect.New(val.Type().Elem()).Elem()
			newVal.Set(val.MapIndex(key))
			if err := expandValue(ctx, newVal); err != nil {
				return err
			}
			val.SetMapIndex(key, newVal)
		}

	default:
	}
	return nil
}
