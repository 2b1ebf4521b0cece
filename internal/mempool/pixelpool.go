// Package mempool provides sized buffer pools for pixel scratch space used
// during variant generation. Each source page produces several full-size
// grayscale copies plus integral-image tables; pooling them keeps allocation
// churn flat when many documents run through one process.
package mempool

import (
	"sync"
)

var (
	bytePools   sync.Map // key: size class (int), value: *sync.Pool
	uint64Pools sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next multiple of 4096 so buffers for pages of
// slightly different dimensions land in the same bucket.
func sizeClass(n int) int {
	const step = 4096
	if n <= step {
		return step
	}
	r := (n + step - 1) / step
	return r * step
}

// GetBytes retrieves a []byte buffer of at least n elements from the pool.
// The returned slice has length n but may have larger capacity. The caller
// must return it via PutBytes when done.
func GetBytes(n int) []byte {
	cls := sizeClass(n)
	pAny, _ := bytePools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]byte, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		buf := make([]byte, cls)
		return buf[:n]
	}
	buf, ok := p.Get().([]byte)
	if !ok || cap(buf) < cls {
		buf = make([]byte, cls)
	} else {
		buf = buf[:cap(buf)]
	}
	return buf[:n]
}

// PutBytes returns a buffer to the pool. It is safe to pass a nil slice.
func PutBytes(buf []byte) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := bytePools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]byte, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return
	}
	p.Put(buf[:cap(buf)]) //nolint:staticcheck
}

// GetUint64 retrieves a []uint64 buffer of at least n elements, zeroed.
// Integral-image tables accumulate into these, so clean state is required.
// The caller must return it via PutUint64 when done.
func GetUint64(n int) []uint64 {
	cls := sizeClass(n)
	pAny, _ := uint64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]uint64, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		buf := make([]uint64, cls)
		return buf[:n]
	}
	buf, ok := p.Get().([]uint64)
	if !ok || cap(buf) < cls {
		buf = make([]uint64, cls)
	} else {
		buf = buf[:cap(buf)]
	}
	for i := range buf[:n] {
		buf[i] = 0
	}
	return buf[:n]
}

// PutUint64 returns a buffer to the pool. It is safe to pass a nil slice.
func PutUint64(buf []uint64) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := uint64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]uint64, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return
	}
	p.Put(buf[:cap(buf)]) //nolint:staticcheck
}
