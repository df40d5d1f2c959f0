// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pulse-metrics/pulse/pkg/logger"
)

// BuildSource turns a declaratively described object into a Source.
//
// Exported struct fields carrying a `metric` tag are discovered
// (embedded structs included) and bound into a registry:
//
//	type WebStats struct {
//		Requests *metrics.MutableCounterLong `metric:"Requests,desc=Requests served"`
//		Inflight *metrics.MutableGaugeInt    `metric:"Inflight"`
//		Latency  *metrics.MutableStat        `metric:"Latency,desc=Request latency,rolling,extended"`
//		HeapUsed func() int64                `metric:"HeapUsed,desc=Heap in use"`
//	}
//
// Nil metric-typed fields are instantiated, registered and assigned
// back; non-nil func-typed fields become func-backed gauges. A field
// of type *Registry is discovered and reused; otherwise a registry is
// created from the object's info. Objects may implement
// DescribedSource to supply name, description and context, and may
// implement Source directly to keep full control of their records.
//
// Misuse is rejected: an object that implements Source and has tagged
// fields but no registry field fails with ErrHybridNeedsRegistry; an
// object with neither tagged fields nor a Source implementation fails
// with ErrNoTaggedFields.
func BuildSource(obj any) (Source, *Info, error) {
	if obj == nil {
		return nil, nil, fmt.Errorf("build source: nil object")
	}
	b := &sourceBinder{}

	sv, bindable := structValue(obj)
	if bindable {
		b.findRegistry(sv)
	}

	info, context := describe(obj)
	if b.registry == nil {
		b.registry = NewRegistry(info)
	}
	if context != "" {
		b.registry.SetContext(context)
	}

	if bindable {
		if err := b.bindFields(sv); err != nil {
			return nil, nil, err
		}
	}

	if src, ok := obj.(Source); ok {
		if b.hasTagged && !b.hasRegistry {
			return nil, nil, fmt.Errorf("%w: %T", ErrHybridNeedsRegistry, obj)
		}
		return src, info, nil
	}
	if !b.hasTagged {
		return nil, nil, fmt.Errorf("%w: %T", ErrNoTaggedFields, obj)
	}
	registry := b.registry
	return SourceFunc(func(c *Collector, all bool) {
		registry.Snapshot(c.AddRecord(registry.Info()), all)
	}), info, nil
}

type sourceBinder struct {
	registry    *Registry
	hasRegistry bool
	hasTagged   bool
}

// structValue unwraps obj to an addressable struct value, the shape
// required for assigning created metrics back into fields.
func structValue(obj any) (reflect.Value, bool) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v.Elem(), true
}

func describe(obj any) (*Info, string) {
	name := reflect.Indirect(reflect.ValueOf(obj)).Type().Name()
	description := name
	context := ""
	if d, ok := obj.(DescribedSource); ok {
		n, desc, ctx := d.SourceInfo()
		if n != "" {
			name = n
		}
		if desc != "" {
			description = desc
		}
		context = ctx
	}
	return NewInfo(name, description), context
}

var registryType = reflect.TypeOf((*Registry)(nil))

func (b *sourceBinder) findRegistry(sv reflect.Value) {
	eachField(sv, func(f reflect.StructField, fv reflect.Value) bool {
		if f.Type == registryType && !fv.IsNil() {
			b.registry = fv.Interface().(*Registry)
			b.hasRegistry = true
			return false
		}
		return true
	})
}

func (b *sourceBinder) bindFields(sv reflect.Value) error {
	var err error
	eachField(sv, func(f reflect.StructField, fv reflect.Value) bool {
		tag, ok := f.Tag.Lookup("metric")
		if !ok {
			return true
		}
		if err = b.bind(f, fv, tag); err != nil {
			return false
		}
		return true
	})
	return err
}

func (b *sourceBinder) bind(f reflect.StructField, fv reflect.Value, tag string) error {
	opts := parseMetricTag(tag, f.Name)
	info := NewInfo(opts.name, opts.description)

	if f.Type.Kind() == reflect.Func {
		if fv.IsNil() {
			logger.GetLogger().WithField("field", f.Name).
				Warn("Skipping nil func gauge field")
			return nil
		}
		switch fn := fv.Interface().(type) {
		case func() int64:
			if err := b.registry.Add(info.Name(), NewFuncGaugeLong(info, fn)); err != nil {
				return err
			}
		case func() float64:
			if err := b.registry.Add(info.Name(), NewFuncGaugeDouble(info, fn)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("field %s: unsupported gauge func type %s", f.Name, f.Type)
		}
		b.hasTagged = true
		return nil
	}

	// Fields already set are assumed to be bound elsewhere.
	if fv.Kind() != reflect.Pointer {
		return fmt.Errorf("field %s: tagged field must be a mutable metric pointer or func, got %s", f.Name, f.Type)
	}
	if !fv.IsNil() {
		return nil
	}
	if !fv.CanSet() {
		return fmt.Errorf("field %s: cannot assign created metric", f.Name)
	}

	var m MutableMetric
	switch f.Type {
	case reflect.TypeOf((*MutableCounterInt)(nil)):
		m = NewMutableCounterInt(info, 0)
	case reflect.TypeOf((*MutableCounterLong)(nil)):
		m = NewMutableCounterLong(info, 0)
	case reflect.TypeOf((*MutableGaugeInt)(nil)):
		m = NewMutableGaugeInt(info, 0)
	case reflect.TypeOf((*MutableGaugeLong)(nil)):
		m = NewMutableGaugeLong(info, 0)
	case reflect.TypeOf((*MutableGaugeFloat)(nil)):
		m = NewMutableGaugeFloat(info, 0)
	case reflect.TypeOf((*MutableGaugeDouble)(nil)):
		m = NewMutableGaugeDouble(info, 0)
	case reflect.TypeOf((*MutableStat)(nil)):
		m = NewMutableStat(opts.name, opts.description,
			opts.sampleName, opts.valueName, opts.extended, opts.rolling)
	default:
		return fmt.Errorf("field %s: unsupported metric field type %s", f.Name, f.Type)
	}
	if err := b.registry.Add(info.Name(), m); err != nil {
		return err
	}
	fv.Set(reflect.ValueOf(m))
	b.hasTagged = true
	return nil
}

// eachField visits exported fields depth-first, descending into
// embedded structs. The visitor returns false to stop.
func eachField(sv reflect.Value, visit func(reflect.StructField, reflect.Value) bool) bool {
	t := sv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := sv.Field(i)
		if f.Anonymous {
			ev := fv
			if ev.Kind() == reflect.Pointer {
				if ev.IsNil() {
					continue
				}
				ev = ev.Elem()
			}
			if ev.Kind() == reflect.Struct {
				if !eachField(ev, visit) {
					return false
				}
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if !visit(f, fv) {
			return false
		}
	}
	return true
}

type metricTagSpec struct {
	name        string
	description string
	sampleName  string
	valueName   string
	extended    bool
	rolling     bool
}

// parseMetricTag parses `metric:"Name,desc=...,sample=...,value=...,
// extended,rolling"`. Every part is optional; the name defaults to the
// field name and the description to the name.
func parseMetricTag(tag, fieldName string) metricTagSpec {
	opts := metricTagSpec{}
	parts := strings.Split(tag, ",")
	if len(parts) > 0 && !strings.Contains(parts[0], "=") {
		opts.name = strings.TrimSpace(parts[0])
		parts = parts[1:]
	}
	for _, p := range parts {
		key, val, hasVal := strings.Cut(strings.TrimSpace(p), "=")
		switch key {
		case "desc":
			opts.description = val
		case "sample":
			opts.sampleName = val
		case "value":
			opts.valueName = val
		case "extended":
			opts.extended = !hasVal || val == "true"
		case "rolling":
			opts.rolling = !hasVal || val == "true"
		}
	}
	if opts.name == "" {
		opts.name = fieldName
	}
	if opts.description == "" {
		opts.description = opts.name
	}
	return opts
}
