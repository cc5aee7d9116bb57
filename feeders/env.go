// Package feeders provides configuration feeders for environment variables,
// .env files and YAML, TOML and JSON documents. Every feeder can fill a whole
// struct (Feed) or a single keyed section (FeedKey).
package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

var durationType = reflect.TypeOf(time.Duration(0))

// basicTypes maps a kind to the unnamed type cast understands, so named
// types like `type Mode string` are cast through their underlying kind.
var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.String:  reflect.TypeOf(""),
	reflect.Bool:    reflect.TypeOf(false),
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
}

// lookupFunc resolves a variable name to its value.
type lookupFunc func(name string) (string, bool)

// EnvFeeder fills `env`-tagged fields from the process environment.
// Unset and empty variables leave the field untouched.
type EnvFeeder struct{}

// NewEnvFeeder creates an EnvFeeder.
func NewEnvFeeder() EnvFeeder {
	return EnvFeeder{}
}

// Feed populates structure from the environment.
func (f EnvFeeder) Feed(structure any) error {
	return feedEnv(structure, envName("", ""), os.LookupEnv)
}

// FeedKey populates a config section. Variable names are taken verbatim
// from the tags, so the key is not part of them.
func (f EnvFeeder) FeedKey(_ string, target any) error {
	return f.Feed(target)
}

// envName builds the variable name for a tag with optional affixes.
func envName(prefix, suffix string) func(tag string) string {
	prefix = strings.ToUpper(prefix)
	suffix = strings.ToUpper(suffix)
	return func(tag string) string {
		name := strings.ToUpper(tag)
		if prefix != "" {
			name = prefix + "_" + name
		}
		if suffix != "" {
			name = name + "_" + suffix
		}
		return name
	}
}

func feedEnv(structure any, name func(string) string, lookup lookupFunc) error {
	rv := reflect.ValueOf(structure)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrEnvInvalidStructure
	}
	return fillStruct(rv.Elem(), name, lookup)
}

func fillStruct(rv reflect.Value, name func(string) string, lookup lookupFunc) error {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rt.Field(i)
		if !field.CanSet() {
			continue
		}

		switch {
		case field.Kind() == reflect.Struct:
			if err := fillStruct(field, name, lookup); err != nil {
				return err
			}
			continue
		case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
			if !field.IsNil() {
				if err := fillStruct(field.Elem(), name, lookup); err != nil {
					return err
				}
			}
			continue
		}

		tag, ok := fieldType.Tag.Lookup("env")
		if !ok || tag == "" || tag == "-" {
			continue
		}
		value, found := lookup(name(tag))
		if !found || value == "" {
			continue
		}
		if err := setField(field, value); err != nil {
			return fmt.Errorf("field '%s' (%s): %w", fieldType.Name, name(tag), err)
		}
	}
	return nil
}

// setField converts raw into the field's type. Durations are parsed with
// time.ParseDuration; slices take comma-separated values.
func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: %q to duration: %w", ErrEnvConvert, raw, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	if field.Kind() == reflect.Slice {
		parts := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, part := range parts {
			elem := reflect.New(field.Type().Elem()).Elem()
			if err := setField(elem, strings.TrimSpace(part)); err != nil {
				return err
			}
			slice = reflect.Append(slice, elem)
		}
		field.Set(slice)
		return nil
	}

	target := field.Type()
	if basic, ok := basicTypes[field.Kind()]; ok {
		target = basic
	}
	converted, err := cast.FromType(raw, target)
	if err != nil {
		return fmt.Errorf("%w: %q to %v: %w", ErrEnvConvert, raw, field.Type(), err)
	}
	value := reflect.ValueOf(converted)
	if value.Type() != field.Type() {
		if !value.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("%w: %q to %v", ErrEnvConvert, raw, field.Type())
		}
		value = value.Convert(field.Type())
	}
	field.Set(value)
	return nil
}
