package properties

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var units = map[string]time.Duration{
	"NANOS":     time.Nanosecond,
	"MICROS":    time.Microsecond,
	"MILLIS":    time.Millisecond,
	"SECONDS":   time.Second,
	"MINUTES":   time.Minute,
	"HOURS":     time.Hour,
	"HALF_DAYS": 12 * time.Hour,
	"DAYS":      24 * time.Hour,
}

// DurationProperty combines a time unit property and an amount property, such as
// waiting.alert.time.unit=SECONDS and waiting.alert.time.value=5.
type DurationProperty struct {
	unit  Property[time.Duration]
	value Property[string]
}

// Duration defines a duration property. When the unit is not defined, the amount is read as a
// Go duration ("1m30s") or as a number of milliseconds.
func Duration(unitName, valueName string) DurationProperty {
	return DurationProperty{
		unit: New(unitName, func(s string) (time.Duration, error) {
			if u, ok := units[strings.ToUpper(s)]; ok {
				return u, nil
			}
			return 0, fmt.Errorf("unknown time unit")
		}),
		value: String(valueName),
	}
}

func (d DurationProperty) Name() string {
	return d.value.Name()
}

func (d DurationProperty) Get() (time.Duration, bool, error) {
	raw, ok, _ := d.value.Get()
	if !ok {
		return 0, false, nil
	}
	unit, unitDefined, err := d.unit.Get()
	if err != nil {
		return 0, true, err
	}
	if !unitDefined {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return d.checked(raw, time.Duration(n)*time.Millisecond)
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return 0, true, &ParseError{Name: d.value.Name(), Value: raw, Err: err}
		}
		return d.checked(raw, v)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, true, &ParseError{Name: d.value.Name(), Value: raw, Err: err}
	}
	return d.checked(raw, time.Duration(n)*unit)
}

func (d DurationProperty) checked(raw string, v time.Duration) (time.Duration, bool, error) {
	if v < 0 {
		return 0, true, &ParseError{Name: d.value.Name(), Value: raw, Err: fmt.Errorf("negative duration")}
	}
	return v, true, nil
}

func (d DurationProperty) GetOrDefault(def time.Duration) time.Duration {
	v, ok, err := d.Get()
	if !ok || err != nil {
		return def
	}
	return v
}

// Set overrides both properties.
func (d DurationProperty) Set(unit string, amount int64) {
	d.unit.Set(unit)
	d.value.Set(strconv.FormatInt(amount, 10))
}

func (d DurationProperty) Unset() {
	d.unit.Unset()
	d.value.Unset()
}
