// Package pool provides cache of staging buffer pools.
//
// Dispatchers of the same shape share pools, so staging buffers are
// reused across sessions.
package pool

import (
	"sync"

	"pipelined.dev/digital/driver"
)

type (
	// Element is a type of port sample accepted by driver writes.
	Element interface {
		uint8 | uint16 | int32
	}

	// Pool of buffers with the same element type and shape.
	Pool[T Element] struct {
		rows int
		cols int
		pool sync.Pool
	}

	key struct {
		elem interface{}
		rows int
		cols int
	}
)

var m = struct {
	sync.Mutex
	pools map[key]interface{}
}{
	pools: map[key]interface{}{},
}

// Get returns pool for provided element type and shape. Pools are cached
// internally, so multiple calls for the same shape will return the same
// pool instance.
func Get[T Element](rows, cols int) *Pool[T] {
	var zero T
	k := key{elem: zero, rows: rows, cols: cols}
	m.Lock()
	defer m.Unlock()
	if p, ok := m.pools[k]; ok {
		return p.(*Pool[T])
	}

	p := &Pool[T]{rows: rows, cols: cols}
	p.pool.New = func() interface{} {
		data := make([]T, rows*cols)
		return &data
	}
	m.pools[k] = p
	return p
}

// Wipe cleans up internal cache of pools.
func Wipe() {
	m.Lock()
	defer m.Unlock()
	m.pools = map[key]interface{}{}
}

// Alloc retrieves a buffer from the pool. Content of the buffer is
// undefined.
func (p *Pool[T]) Alloc() driver.Buffer[T] {
	data := p.pool.Get().(*[]T)
	return driver.Buffer[T]{
		Rows: p.rows,
		Cols: p.cols,
		Data: *data,
	}
}

// Free returns buffer to the pool. Buffer must not be used after this
// call. Buffers of different shape are ignored.
func (p *Pool[T]) Free(b driver.Buffer[T]) {
	if b.Rows != p.rows || b.Cols != p.cols || len(b.Data) != p.rows*p.cols {
		return
	}
	p.pool.Put(&b.Data)
}
