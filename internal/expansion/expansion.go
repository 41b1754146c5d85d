// Package expansion replaces "${prefix:key}" references inside configuration structs.
// Endpoint settings are plain strings, so a daemon host or certificate path can point
// at the environment or at a secret store instead of being written out.
package expansion

import (
	"os"
	"reflect"
	"strings"

	"github.com/animalet/dockerhost-go/pkg/secrets"
	"github.com/pkg/errors"
)

// Expand walks target, which must be a pointer, and expands every settable string it
// reaches through structs, pointers, slices and maps. The first resolution error stops
// the walk; strings already expanded keep their new value.
func Expand(registry *secrets.Registry, target any) error {
	if target == nil {
		return nil
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr {
		return errors.Errorf("expansion target must be a pointer, got %T", target)
	}
	if v.IsNil() {
		return nil
	}
	return expandValue(registry, v.Elem())
}

// String expands the references in s.
func String(registry *secrets.Registry, s string) (string, error) {
	var expandErr error
	expanded := os.Expand(strings.TrimSpace(s), func(property string) string {
		if expandErr != nil {
			return ""
		}
		value, err := registry.Resolve(property)
		if err != nil {
			expandErr = errors.Wrap(err, "error resolving property")
			return ""
		}
		return value
	})
	if expandErr != nil {
		return "", expandErr
	}
	return expanded, nil
}

func expandValue(registry *secrets.Registry, val reflect.Value) error {
	switch val.Kind() {
	case reflect.String:
		if !val.CanSet() {
			return nil
		}
		expanded, err := String(registry, val.String())
		if err != nil {
			return err
		}
		val.SetString(expanded)

	case reflect.Struct:
		for i := 0; i < val.NumField(); i++ {
			if err := expandValue(registry, val.Field(i)); err != nil {
				return err
			}
		}

	case reflect.Ptr, reflect.Interface:
		if !val.IsNil() {
			return expandValue(registry, val.Elem())
		}

	case reflect.Slice:
		for i := 0; i < val.Len(); i++ {
			if err := expandValue(registry, val.Index(i)); err != nil {
				return err
			}
		}

	case reflect.Map:
		for _, key := range val.MapKeys() {
			// map elements are not addressable
			elem := reflect.New(val.Type().Elem()).Elem()
			elem.Set(val.MapIndex(key))
			if err := expandValue(registry, elem); err != nil {
				return err
			}
			val.SetMapIndex(key, elem)
		}

	default:
	}
	return nil
}
