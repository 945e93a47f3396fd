package pool

import "testing"

func TestByteSlicePool_GetReturnsFullSize(t *testing.T) {
	p := NewByteSlicePool(1024)

	buf := p.Get()
	if len(buf) != 1024 {
		t.Errorf("len = %d, want 1024", len(buf))
	}

	// A shortened slice comes back at full length on reuse.
	p.Put(buf[:10])
	buf = p.Get()
	if len(buf) != 1024 {
		t.Errorf("reused len = %d, want 1024", len(buf))
	}
}

func TestByteSlicePool_RejectsWrongSizes(t *testing.T) {
	p := NewByteSlicePool(1024)

	// Must not panic; wrong-sized slices are simply dropped.
	p.Put(make([]byte, 16))
	p.Put(make([]byte, 64*1024))

	if got := p.Get(); len(got) != 1024 {
		t.Errorf("len = %d, want 1024", len(got))
	}
}

func TestMediumSlicePool_SizedForStreamingChunks(t *testing.T) {
	buf := MediumSlicePool.Get()
	defer MediumSlicePool.Put(buf)

	if len(buf) != 64*1024 {
		t.Errorf("len = %d, want 64KB", len(buf))
	}
}
