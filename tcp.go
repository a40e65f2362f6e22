package eventcore

import "github.com/google/uuid"

// TCP connection manager.
//
// Grounded on the raw-socket pattern established in net_unix.go/
// net_windows.go: every connection is a bare non-blocking fd integrated
// with the loop's poller, never a net.Conn — wrapping net.Conn would
// require a blocking read/write goroutine per connection, which breaks
// the single-threaded cooperative model spec.md §5 requires.


// ConnID addresses a connection owned by a [TCPManager]. It is stable
// and unique for the connection's lifetime; applications never see a
// socket handle directly.
type ConnID uint64

// ConnDirection distinguishes how a connection came to exist.
type ConnDirection int

const (
	// DirectionInbound connections arrived via a listener accept.
	DirectionInbound ConnDirection = iota
	// DirectionOutbound connections were created via OpenConnection.
	DirectionOutbound
)

// ConnState is a connection's lifecycle stage.
type ConnState int

const (
	ConnStateConnecting ConnState = iota
	ConnStateEstablished
	ConnStateClosing
	ConnStateClosed
)

// ConnectionCallback is invoked for every lifecycle and data event on a
// connection: the first call announces the id (with a `remote-hostname`
// param for inbound connections), subsequent calls deliver received
// bytes with status Good, and the final call carries a non-Good status
// with an empty msg, after which id is retired.
type ConnectionCallback func(id ConnID, ctx *any, status Status, params Params, msg []byte)

type connection struct {
	id    ConnID
	fd    int
	dir   ConnDirection
	state ConnState
	ctx   any
	// diagID is a process-unique logging-correlation identifier; ConnID
	// remains the only addressing handle applications ever see.
	diagID         string
	remoteHostname string
	wantWrite      bool
	pending        []pendingWrite
	announced      bool
}

// pendingWrite is one not-yet-fully-flushed send: buf is held (not freed
// to the pool) until data, a shrinking subslice of buf.Bytes(), is
// entirely written — freeing buf any earlier would let a concurrent
// alloc recycle its backing array while bytes are still in flight.
type pendingWrite struct {
	buf  *NetworkBuffer
	data []byte
}

type tcpListener struct {
	fd       int
	hostname string
	port     uint16
}

// TCPManager is an event [Source] that owns TCP listener and connection
// sockets, per spec.md §4.3.
type TCPManager struct {
	name string

	cb         ConnectionCallback
	initialCtx any

	listenPort      uint16
	listenHostnames []string
	recvBufSize     int
	backlog         int

	loop      *Loop
	state     SourceState
	listeners []*tcpListener
	conns     map[ConnID]*connection
	nextID    ConnID
	bufs      *netbufPool
	stopping  bool
}

// TCPOption configures a [TCPManager] at construction time.
type TCPOption func(*TCPManager)

// WithListenPort enables the listener side on the given port. Omitting
// this option (or passing 0) means the manager never listens, per
// spec.md §4.3's "absent means no listener".
func WithListenPort(port uint16) TCPOption {
	return func(m *TCPManager) { m.listenPort = port }
}

// WithListenHostnames restricts the listener to specific interfaces;
// the default is all interfaces.
func WithListenHostnames(hostnames ...string) TCPOption {
	return func(m *TCPManager) { m.listenHostnames = hostnames }
}

// WithRecvBufSize sets the per-connection receive buffer size; the
// default is 16384 bytes.
func WithRecvBufSize(size uint16) TCPOption {
	return func(m *TCPManager) { m.recvBufSize = int(size) }
}

// WithListenBacklog sets the listen() backlog; the default is 128.
func WithListenBacklog(n int) TCPOption {
	return func(m *TCPManager) { m.backlog = n }
}

// NewTCP constructs a TCP connection manager. cb receives every
// connection lifecycle and data event; initialCtx is the context value
// a new connection starts with before cb has a chance to overwrite it.
func NewTCP(name string, cb ConnectionCallback, initialCtx any, opts ...TCPOption) *TCPManager {
	m := &TCPManager{
		name:        name,
		cb:          cb,
		initialCtx:  initialCtx,
		recvBufSize: 16384,
		backlog:     128,
		conns:       make(map[ConnID]*connection),
		nextID:      1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *TCPManager) Name() string      { return m.name }
func (m *TCPManager) Type() SourceType  { return SourceTypeConnectionManager }
func (m *TCPManager) State() SourceState { return m.state }

// start binds any configured listener(s) and begins accepting. It is a
// no-op if the manager has already started, so a retried [Loop.Start]
// (after rollback stopped every previously-started source) can safely
// call start again without re-binding an already-bound listener.
func (m *TCPManager) start(loop *Loop) error {
	if m.state == SourceStateStarted || m.state == SourceStateStarting {
		return nil
	}
	m.state = SourceStateStarting
	m.loop = loop
	m.stopping = false
	m.bufs = newNetbufPool(m.recvBufSize)

	if m.listenPort != 0 {
		hostnames := m.listenHostnames
		if len(hostnames) == 0 {
			hostnames = []string{"0.0.0.0"}
		}
		for _, host := range hostnames {
			fd, err := listenTCP(host, m.listenPort, m.backlog)
			if err != nil {
				m.closeAllListeners()
				m.state = SourceStateFresh
				return wrapf(StatusBadCommunicationError, "eventcore: listen %s:%d: %w", host, m.listenPort, err)
			}
			lst := &tcpListener{fd: fd, hostname: host, port: m.listenPort}
			m.listeners = append(m.listeners, lst)
			if err := loop.RegisterFD(fd, ioEventRead, m.onAcceptReadable(lst)); err != nil {
				m.closeAllListeners()
				m.state = SourceStateFresh
				return err
			}
		}
	}

	m.state = SourceStateStarted
	return nil
}

// stop closes all listeners immediately and begins tearing down every
// live connection with a terminal BadConnectionClosed callback, per
// spec.md §4.3's listener/connection shutdown ordering.
func (m *TCPManager) stop() {
	if m.stopping {
		return
	}
	m.stopping = true
	m.closeAllListeners()

	for id, c := range m.conns {
		m.terminate(id, c, StatusBadConnectionClosed)
	}

	if len(m.conns) == 0 {
		m.state = SourceStateStopped
	} else {
		m.state = SourceStateStopping
	}
}

func (m *TCPManager) closeAllListeners() {
	for _, lst := range m.listeners {
		_ = m.loop.UnregisterFD(lst.fd)
		_ = netClose(lst.fd)
	}
	m.listeners = nil
}

func (m *TCPManager) allocID() ConnID {
	id := m.nextID
	m.nextID++
	if m.nextID == 0 {
		m.nextID = 1
	}
	return id
}

// AllocNetworkBuffer returns a [NetworkBuffer] of the given length for the
// caller to fill before handing it to [TCPManager.SendWithConnection],
// recycled from the manager's pool where possible. It must only be called
// after the manager has started (so its pool exists).
func (m *TCPManager) AllocNetworkBuffer(length int) *NetworkBuffer {
	return m.bufs.alloc(length)
}

// FreeNetworkBuffer returns buf to the manager's pool without sending it.
// Callers only need this to discard a buffer they decided not to send;
// [TCPManager.SendWithConnection] always takes ownership and frees buf
// itself, regardless of outcome.
func (m *TCPManager) FreeNetworkBuffer(buf *NetworkBuffer) {
	m.bufs.free(buf)
}

// OpenConnection begins a non-blocking outbound connect to the
// `hostname`/`port` given in params. Local, synchronous failures (bad
// params, socket exhaustion) are returned directly; the async outcome
// arrives via cb.
func (m *TCPManager) OpenConnection(params Params, ctx any) (ConnID, error) {
	hostname, ok := params.String("hostname")
	if !ok || hostname == "" {
		return 0, newStatusError(StatusBadInvalidArgument, errHostnameRequired)
	}
	port, ok := params.Uint16("port")
	if !ok || port == 0 {
		return 0, newStatusError(StatusBadInvalidArgument, errPortRequired)
	}

	fd, err := connectTCP(hostname, port)
	if err != nil {
		return 0, wrapf(StatusBadCommunicationError, "eventcore: connect %s:%d: %w", hostname, port, err)
	}

	id := m.allocID()
	c := &connection{
		id:     id,
		fd:     fd,
		dir:    DirectionOutbound,
		state:  ConnStateConnecting,
		ctx:    ctx,
		diagID: uuid.NewString(),
	}
	m.conns[id] = c

	if err := m.loop.RegisterFD(fd, ioEventWrite, m.onConnEvent(c)); err != nil {
		delete(m.conns, id)
		_ = netClose(fd)
		return 0, err
	}
	c.wantWrite = true
	m.loop.Logger().Debug().Str("conn_diag_id", c.diagID).Str("hostname", hostname).Int("conn_id", int(id)).Log("eventcore: connecting outbound")
	return id, nil
}

// SendWithConnection transfers ownership of buf to the manager; it is
// freed internally once fully written (or immediately, if rejected
// outright), never by the caller. Writes are queued and flushed in FIFO
// order as the socket reports writable.
func (m *TCPManager) SendWithConnection(id ConnID, buf *NetworkBuffer) Status {
	c, ok := m.conns[id]
	if !ok || c.state == ConnStateClosing || c.state == ConnStateClosed {
		m.bufs.free(buf)
		return StatusBadConnectionClosed
	}
	c.pending = append(c.pending, pendingWrite{buf: buf, data: buf.Bytes()})
	if !c.wantWrite {
		c.wantWrite = true
		_ = m.loop.ModifyFD(c.fd, ioEventRead|ioEventWrite)
	}
	return StatusGood
}

// CloseConnection initiates graceful shutdown of connection id.
func (m *TCPManager) CloseConnection(id ConnID) error {
	c, ok := m.conns[id]
	if !ok || c.state == ConnStateClosing || c.state == ConnStateClosed {
		return newStatusError(StatusBadConnectionClosed, nil)
	}
	m.terminate(id, c, StatusBadConnectionClosed)
	return nil
}

// terminate tears a connection down and schedules its terminal callback
// on the loop's delayed queue, so the callback runs in the delayed phase
// of the current or next Run cycle rather than synchronously inside
// whatever call triggered teardown (a read, write or connect error, peer
// close, Stop, explicit CloseConnection).
func (m *TCPManager) terminate(id ConnID, c *connection, status Status) {
	if c.state == ConnStateClosed {
		return
	}
	c.state = ConnStateClosing
	_ = m.loop.UnregisterFD(c.fd)
	_ = netClose(c.fd)
	for _, pw := range c.pending {
		m.bufs.free(pw.buf)
	}
	c.pending = nil
	m.loop.Logger().Debug().Str("conn_diag_id", c.diagID).Str("status", status.String()).Int("conn_id", int(id)).Log("eventcore: connection terminating")

	m.loop.AddDelayed(func(_, _ any) {
		c.state = ConnStateClosed
		delete(m.conns, id)
		m.cb(id, &c.ctx, status, nil, nil)
		if m.stopping && len(m.conns) == 0 {
			m.state = SourceStateStopped
		}
	}, nil, nil)
}

// onAcceptReadable returns the poller callback for a listener's fd: it
// drains every pending accept, establishing one connection per client.
func (m *TCPManager) onAcceptReadable(lst *tcpListener) ioCallback {
	return func(events ioEvents) {
		if events&ioEventRead == 0 {
			return
		}
		for {
			fd, remote, err := acceptTCP(lst.fd)
			if err != nil {
				if isWouldBlock(err) {
					return
				}
				return
			}
			id := m.allocID()
			c := &connection{
				id:             id,
				fd:             fd,
				dir:            DirectionInbound,
				state:          ConnStateEstablished,
				ctx:            m.initialCtx,
				diagID:         uuid.NewString(),
				remoteHostname: remote,
			}
			m.conns[id] = c
			if err := m.loop.RegisterFD(fd, ioEventRead, m.onConnEvent(c)); err != nil {
				delete(m.conns, id)
				_ = netClose(fd)
				continue
			}
			m.loop.Logger().Debug().Str("conn_diag_id", c.diagID).Str("remote", remote).Int("conn_id", int(id)).Log("eventcore: accepted inbound connection")
			params := NewParams("remote-hostname", hostOf(remote))
			m.cb(id, &c.ctx, StatusGood, params, nil)
			c.announced = true
		}
	}
}

// onConnEvent returns the poller callback multiplexing read-ready
// (data arrived, or peer closed), write-ready (outbound connect
// completed, or queued sends may drain), and error/hangup conditions
// for one connection.
func (m *TCPManager) onConnEvent(c *connection) ioCallback {
	return func(events ioEvents) {
		if c.state == ConnStateClosing || c.state == ConnStateClosed {
			return
		}

		if events&(ioEventError|ioEventHangup) != 0 && c.state != ConnStateConnecting {
			m.terminate(c.id, c, StatusBadCommunicationError)
			return
		}

		if c.state == ConnStateConnecting && events&ioEventWrite != 0 {
			if err := socketConnectError(c.fd); err != nil {
				m.terminate(c.id, c, StatusBadCommunicationError)
				return
			}
			c.state = ConnStateEstablished
			c.wantWrite = len(c.pending) > 0
			interest := ioEventRead
			if c.wantWrite {
				interest |= ioEventWrite
			}
			_ = m.loop.ModifyFD(c.fd, interest)
			m.cb(c.id, &c.ctx, StatusGood, nil, nil)
			c.announced = true
			if c.wantWrite {
				m.flushWrites(c)
			}
			return
		}

		if events&ioEventWrite != 0 {
			m.flushWrites(c)
		}
		if events&ioEventRead != 0 {
			m.readAvailable(c)
		}
	}
}

func (m *TCPManager) readAvailable(c *connection) {
	buf := m.bufs.alloc(m.recvBufSize)
	n, err := netRead(c.fd, buf.Bytes())
	if err != nil {
		m.bufs.free(buf)
		if isWouldBlock(err) {
			return
		}
		m.terminate(c.id, c, StatusBadCommunicationError)
		return
	}
	if n == 0 {
		m.bufs.free(buf)
		m.terminate(c.id, c, StatusBadConnectionClosed)
		return
	}
	msg := append([]byte(nil), buf.Bytes()[:n]...)
	m.bufs.free(buf)
	m.cb(c.id, &c.ctx, StatusGood, nil, msg)
}

func (m *TCPManager) flushWrites(c *connection) {
	for len(c.pending) > 0 {
		pw := &c.pending[0]
		n, err := netWrite(c.fd, pw.data)
		if err != nil {
			if isWouldBlock(err) {
				return
			}
			m.terminate(c.id, c, StatusBadCommunicationError)
			return
		}
		if n < len(pw.data) {
			pw.data = pw.data[n:]
			return
		}
		m.bufs.free(pw.buf)
		c.pending = c.pending[1:]
	}
	if c.wantWrite {
		c.wantWrite = false
		_ = m.loop.ModifyFD(c.fd, ioEventRead)
	}
}

func hostOf(remote string) string {
	host, _, err := splitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}

func splitHostPort(hostport string) (host, port string, err error) {
	for i := len(hostport) - 1; i >= 0; i-- {
		if hostport[i] == ':' {
			return hostport[:i], hostport[i+1:], nil
		}
	}
	return hostport, "", wrapf(StatusBadInvalidArgument, "eventcore: missing port in %q", hostport)
}
