// Package config loads configuration structs from defaults, an optional YAML
// file and environment variables, in that order of precedence (last wins).
//
// Fields are described with struct tags:
//
//	env:"NAME"       environment variable overriding the field
//	yaml:"name"      key in the YAML file
//	default:"value"  applied before the file and environment are read
//	required:"true"  the field must be non-zero once everything is loaded
//
// ${VAR} references in the YAML file are expanded from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Validator is called once loading succeeds, on either a value or pointer
// receiver.
type Validator interface {
	Validate() error
}

// GetConfigFromEnvVars loads dest from defaults and environment variables.
func GetConfigFromEnvVars[T any](dest *T) error {
	return GetConfig(dest, "", false)
}

// GetConfig loads dest from defaults, then the YAML file at path (if any),
// then the environment. With allowFileErrors a missing or unreadable file is
// skipped.
func GetConfig[T any](dest *T, path string, allowFileErrors bool) error {
	val := reflect.ValueOf(dest).Elem()

	if err := visit(val, applyDefault); err != nil {
		return err
	}
	if path != "" {
		if err := loadYAML(dest, path); err != nil && !allowFileErrors {
			return err
		}
	}
	if err := visit(val, applyEnv); err != nil {
		return err
	}
	if err := visit(val, checkRequired); err != nil {
		return err
	}

	if v, ok := any(dest).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

func loadYAML(dest any, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), dest); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return nil
}

// visit calls fn for every settable leaf field, recursing into nested
// structs, and aggregates the errors.
func visit(val reflect.Value, fn func(reflect.Value, reflect.StructField) error) error {
	var result *multierror.Error
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field, meta := val.Field(i), typ.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := visit(field, fn); err != nil {
				result = multierror.Append(result, err)
			}
			continue
		}
		if err := fn(field, meta); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func applyDefault(field reflect.Value, meta reflect.StructField) error {
	def, ok := meta.Tag.Lookup("default")
	if !ok || def == "" || !field.IsZero() {
		return nil
	}
	if err := setFromString(field, def); err != nil {
		return fmt.Errorf("default for %s: %w", meta.Name, err)
	}
	return nil
}

func applyEnv(field reflect.Value, meta reflect.StructField) error {
	name := meta.Tag.Get("env")
	if name == "" {
		return nil
	}
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return nil
	}
	if err := setFromString(field, raw); err != nil {
		return fmt.Errorf("env %s: %w", name, err)
	}
	return nil
}

func checkRequired(field reflect.Value, meta reflect.StructField) error {
	required, _ := strconv.ParseBool(meta.Tag.Get("required"))
	if !required || !field.IsZero() {
		return nil
	}
	return fmt.Errorf("required field env:%s / yaml:%s is missing", meta.Tag.Get("env"), meta.Tag.Get("yaml"))
}

func setFromString(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", raw, err)
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float %q: %w", raw, err)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool %q: %w", raw, err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				slice = reflect.Append(slice, reflect.ValueOf(p).Convert(field.Type().Elem()))
			}
		}
		field.Set(slice)
	default:
		return errors.New("unsupported kind " + field.Kind().String())
	}
	return nil
}
