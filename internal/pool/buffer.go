package pool

import "sync"

// ByteSlicePool manages a pool of reusable byte slices. The streaming copy
// loop churns through one slice per chunk; pooling keeps GC pressure flat
// for long downloads.
type ByteSlicePool struct {
	pool sync.Pool
	size int
}

// NewByteSlicePool creates a new byte slice pool
func NewByteSlicePool(size int) *ByteSlicePool {
	return &ByteSlicePool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				slice := make([]byte, size)
				return &slice
			},
		},
	}
}

// Get retrieves a byte slice from the pool
func (bsp *ByteSlicePool) Get() []byte {
	slicePtr := bsp.pool.Get().(*[]byte)
	return (*slicePtr)[:bsp.size]
}

// Put returns a byte slice to the pool
func (bsp *ByteSlicePool) Put(slice []byte) {
	if cap(slice) < bsp.size || cap(slice) > bsp.size*2 {
		return // Don't pool wrong-sized slices
	}
	bsp.pool.Put(&slice)
}

// MediumSlicePool holds 64KB slices for the media chunk streaming loop
var MediumSlicePool = NewByteSlicePool(64 * 1024)
