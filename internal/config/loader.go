package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc returns the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from the process environment and validates it.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup and validates it.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	if err := fill(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// fill walks nested structs and sets every field carrying an env tag.
func fill(v reflect.Value, lookup LookupFunc) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			if err := fill(fv, lookup); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		value := lookupNonEmpty(lookup, name)
		if value == "" {
			value = lookupNonEmpty(lookup, field.Tag.Get("envAlt"))
		}
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", name)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}
		if err := set(fv, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}
	return nil
}

func lookupNonEmpty(lookup LookupFunc, key string) string {
	if key == "" {
		return ""
	}
	v, _ := lookup(key)
	return strings.TrimSpace(v)
}

func set(fv reflect.Value, value string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(value)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", fv.Type().Elem().Kind())
		}
		var items []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type: %s", fv.Kind())
	}
	return nil
}
