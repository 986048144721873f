package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load fills target in three layers: `default` struct tags, the YAML file
// at path (skipped when path is empty or missing), and finally `env` tag
// overrides from the process environment.
func Load(path string, target interface{}) error {
	if err := applyDefaults(reflect.ValueOf(target)); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if path != "" {
		if err := loadYAML(path, target); err != nil {
			return err
		}
	}
	if err := applyEnv(reflect.ValueOf(target)); err != nil {
		return fmt.Errorf("config environment: %w", err)
	}
	return nil
}

func loadYAML(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func applyDefaults(v reflect.Value) error {
	return walkFields(v, func(field reflect.Value, tag reflect.StructTag) error {
		def := tag.Get("default")
		if def == "" || !field.IsZero() {
			return nil
		}
		return setField(field, def)
	})
}

func applyEnv(v reflect.Value) error {
	return walkFields(v, func(field reflect.Value, tag reflect.StructTag) error {
		name := tag.Get("env")
		if name == "" {
			return nil
		}
		value, ok := os.LookupEnv(name)
		if !ok {
			return nil
		}
		if err := setField(field, value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}

// walkFields visits every settable leaf field of a struct, descending
// through nested structs and allocating nil pointers along the way.
func walkFields(v reflect.Value, visit func(field reflect.Value, tag reflect.StructTag) error) error {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		isStruct := field.Kind() == reflect.Struct ||
			(field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct)
		if isStruct && field.Type() != reflect.TypeOf(time.Time{}) {
			if err := walkFields(field, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(field, t.Field(i).Tag); err != nil {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration %q", value)
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float %q", value)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}
	return nil
}
