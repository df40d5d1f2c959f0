// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"fmt"
	"strconv"
)

// Type discriminates the immutable sample variants.
type Type int

const (
	TypeCounterInt Type = iota
	TypeCounterLong
	TypeGaugeInt
	TypeGaugeLong
	TypeGaugeFloat
	TypeGaugeDouble
)

func (t Type) String() string {
	switch t {
	case TypeCounterInt:
		return "COUNTER_INT"
	case TypeCounterLong:
		return "COUNTER_LONG"
	case TypeGaugeInt:
		return "GAUGE_INT"
	case TypeGaugeLong:
		return "GAUGE_LONG"
	case TypeGaugeFloat:
		return "GAUGE_FLOAT"
	case TypeGaugeDouble:
		return "GAUGE_DOUBLE"
	}
	return "UNKNOWN"
}

// Metric is a single immutable sample: a descriptor plus a typed
// point-in-time value read from a mutable metric during one pass.
type Metric struct {
	info *Info
	typ  Type
	ival int64
	fval float64
}

func CounterInt(info *Info, value int32) Metric {
	return Metric{info: info, typ: TypeCounterInt, ival: int64(value)}
}

func CounterLong(info *Info, value int64) Metric {
	return Metric{info: info, typ: TypeCounterLong, ival: value}
}

func GaugeInt(info *Info, value int32) Metric {
	return Metric{info: info, typ: TypeGaugeInt, ival: int64(value)}
}

func GaugeLong(info *Info, value int64) Metric {
	return Metric{info: info, typ: TypeGaugeLong, ival: value}
}

func GaugeFloat(info *Info, value float32) Metric {
	return Metric{info: info, typ: TypeGaugeFloat, fval: float64(value)}
}

func GaugeDouble(info *Info, value float64) Metric {
	return Metric{info: info, typ: TypeGaugeDouble, fval: value}
}

func (m Metric) Info() *Info { return m.info }

func (m Metric) Name() string { return m.info.Name() }

func (m Metric) Type() Type { return m.typ }

// IsCounter reports whether the sample is monotonic.
func (m Metric) IsCounter() bool {
	return m.typ == TypeCounterInt || m.typ == TypeCounterLong
}

// Int returns the integral value. For float typed samples it
// truncates.
func (m Metric) Int() int64 {
	if m.isFloat() {
		return int64(m.fval)
	}
	return m.ival
}

// Float returns the value as float64 regardless of variant.
func (m Metric) Float() float64 {
	if m.isFloat() {
		return m.fval
	}
	return float64(m.ival)
}

// Value returns the sample in its declared width.
func (m Metric) Value() any {
	switch m.typ {
	case TypeCounterInt, TypeGaugeInt:
		return int32(m.ival)
	case TypeCounterLong, TypeGaugeLong:
		return m.ival
	case TypeGaugeFloat:
		return float32(m.fval)
	default:
		return m.fval
	}
}

func (m Metric) isFloat() bool {
	return m.typ == TypeGaugeFloat || m.typ == TypeGaugeDouble
}

func (m Metric) String() string {
	if m.isFloat() {
		return fmt.Sprintf("%s=%g", m.Name(), m.fval)
	}
	return m.Name() + "=" + strconv.FormatInt(m.ival, 10)
}
