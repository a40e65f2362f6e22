package eventcore

import "sync"

// NetworkBuffer is a send/receive buffer owned by the TCP connection
// manager. allocNetworkBuffer/freeNetworkBuffer follow the zero-copy
// discipline from spec.md §4.3/§9: the caller fills the buffer returned
// by alloc, hands it to sendWithConnection (which takes ownership, even
// on failure), and never touches it again.
type NetworkBuffer struct {
	buf []byte
}

// Bytes exposes the buffer's backing slice for the caller to fill before
// sending. Its length is the length requested from alloc, and
// SendWithConnection writes all of it to the socket.
func (b *NetworkBuffer) Bytes() []byte { return b.buf }

// netbufPool recycles NetworkBuffer allocations across connections, sized
// to the manager's configured recv-bufsize. sync.Pool is the standard
// idiom for exactly this allocate/reuse pattern, avoiding a per-send
// garbage-collected allocation on the hot path.
type netbufPool struct {
	pool sync.Pool
}

func newNetbufPool(size int) *netbufPool {
	if size <= 0 {
		size = 16384
	}
	return &netbufPool{
		pool: sync.Pool{
			New: func() any {
				return &NetworkBuffer{buf: make([]byte, size)}
			},
		},
	}
}

// alloc returns a buffer of at least the given length, either recycled
// from the pool (if large enough) or freshly allocated.
func (p *netbufPool) alloc(length int) *NetworkBuffer {
	nb, _ := p.pool.Get().(*NetworkBuffer)
	if nb == nil || cap(nb.buf) < length {
		return &NetworkBuffer{buf: make([]byte, length)}
	}
	nb.buf = nb.buf[:length]
	return nb
}

// free returns a buffer to the pool for reuse. Called internally once a
// sent buffer's bytes have been written to the socket (or discarded on
// connection teardown), and by [TCPManager.FreeNetworkBuffer] when the
// application discards a buffer it decided not to send.
func (p *netbufPool) free(nb *NetworkBuffer) {
	if nb == nil {
		return
	}
	p.pool.Put(nb)
}
