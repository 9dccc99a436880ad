// Package metric publishes expvar counters of device writes.
package metric

import (
	"expvar"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// WriteCounter measures number of driver writes.
	WriteCounter = "Writes"
	// SampleCounter measures number of samples per channel.
	SampleCounter = "Samples"
	// LatencyCounter measures latency between write calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of written signal.
	DurationCounter = "Duration"
	// SessionCounter counts number of metered sessions.
	SessionCounter = "Sessions"
)

// writers holds a map of counters per written sample mode. Published as
// a single "digital.writers" variable.
var writers = registry{
	vars: expvar.NewMap("digital.writers"),
}

type registry struct {
	mu     sync.Mutex
	vars   *expvar.Map
	byMode map[string]*counters
}

// counters of a single sample mode.
type counters struct {
	sessions expvar.Int
	writes   expvar.Int
	samples  expvar.Int
	latency  elapsed
	duration elapsed
}

// lookup returns counters for the mode, registering them on first use.
func (r *registry) lookup(mode string) *counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byMode[mode]; ok {
		return c
	}
	c := &counters{}
	vars := new(expvar.Map).Init()
	vars.Set(SessionCounter, &c.sessions)
	vars.Set(WriteCounter, &c.writes)
	vars.Set(SampleCounter, &c.samples)
	vars.Set(LatencyCounter, &c.latency)
	vars.Set(DurationCounter, &c.duration)
	r.vars.Set(mode, vars)
	if r.byMode == nil {
		r.byMode = make(map[string]*counters)
	}
	r.byMode[mode] = c
	return c
}

// Get metrics values for provided component type. Empty map is returned
// if component was never metered.
func Get(component interface{}) map[string]string {
	vars, ok := writers.vars.Get(modeOf(component)).(*expvar.Map)
	if !ok {
		return map[string]string{}
	}
	return values(vars)
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	all := make(map[string]map[string]string)
	writers.vars.Do(func(kv expvar.KeyValue) {
		if vars, ok := kv.Value.(*expvar.Map); ok {
			all[kv.Key] = values(vars)
		}
	})
	return all
}

func values(vars *expvar.Map) map[string]string {
	m := make(map[string]string)
	vars.Do(func(kv expvar.KeyValue) {
		m[kv.Key] = kv.Value.String()
	})
	return m
}

// MeasureFunc captures metrics when samples are written.
type MeasureFunc func(samples int64)

// Meter creates new meter closure to capture component counters. Zero
// sample rate means that written samples have no duration.
func Meter(component interface{}, sampleRate float64) MeasureFunc {
	c := writers.lookup(modeOf(component))
	c.sessions.Add(1)
	lastWrite := time.Now()
	return func(samples int64) {
		now := time.Now()
		c.latency.set(now.Sub(lastWrite))
		c.writes.Add(1)
		c.samples.Add(samples)
		if sampleRate > 0 {
			c.duration.add(time.Duration(float64(samples) / sampleRate * float64(time.Second)))
		}
		lastWrite = now
	}
}

// modeOf names the component by its type, pointers are dereferenced.
func modeOf(component interface{}) string {
	t := reflect.TypeOf(component)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// elapsed is expvar.Var of time.Duration, formatted as JSON string.
type elapsed struct {
	ns atomic.Int64
}

func (e *elapsed) String() string {
	return strconv.Quote(time.Duration(e.ns.Load()).String())
}

func (e *elapsed) add(d time.Duration) {
	e.ns.Add(int64(d))
}

func (e *elapsed) set(d time.Duration) {
	e.ns.Store(int64(d))
}
