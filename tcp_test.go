package eventcore

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTCP_LoopbackConnectEcho exercises spec.md scenario 2: a listener
// accepts a loopback client, the client sends "open62541", and the
// accepted side receives the identical bytes.
func TestTCP_LoopbackConnectEcho(t *testing.T) {
	l := newTestLoop(t)

	var connCount atomic.Int32
	var serverID, clientID ConnID
	received := make(chan []byte, 1)

	cb := func(id ConnID, ctx *any, status Status, params Params, msg []byte) {
		if status != StatusGood {
			connCount.Add(-1)
			return
		}
		if msg == nil {
			// first callback for this id: announce.
			connCount.Add(1)
			if _, inbound := params.String("remote-hostname"); inbound {
				serverID = id
			} else if *ctx == clientMarker {
				clientID = id
			}
			return
		}
		received <- append([]byte(nil), msg...)
	}

	tcp := NewTCP("tcp", cb, nil, WithListenPort(14841))
	require.NoError(t, l.RegisterSource(tcp))
	require.NoError(t, l.Start())

	for i := 0; i < 2; i++ {
		require.NoError(t, l.Run(5))
	}

	var clientCtx any = clientMarker
	id, err := tcp.OpenConnection(NewParams("hostname", "127.0.0.1", "port", uint16(14841)), clientCtx)
	require.NoError(t, err)
	_ = id

	for i := 0; i < 5 && (serverID == 0 || clientID == 0); i++ {
		require.NoError(t, l.Run(5))
	}
	assert.Equal(t, int32(2), connCount.Load())
	require.NotZero(t, clientID)

	payload := []byte("open62541")
	buf := tcp.AllocNetworkBuffer(len(payload))
	copy(buf.Bytes(), payload)
	status := tcp.SendWithConnection(clientID, buf)
	require.Equal(t, StatusGood, status)

	var got []byte
	for i := 0; i < 5 && got == nil; i++ {
		require.NoError(t, l.Run(5))
		select {
		case got = <-received:
		default:
		}
	}
	require.Equal(t, payload, got)

	require.NoError(t, tcp.CloseConnection(clientID))
	for i := 0; i < 5 && connCount.Load() != 0; i++ {
		require.NoError(t, l.Run(5))
	}
	assert.Equal(t, int32(0), connCount.Load())
}

// clientMarker distinguishes the test's outbound connection context from
// nil, since both server and client side otherwise start with a nil ctx.
var clientMarker = "client"

// TestTCP_GracefulShutdownWithLiveConnection exercises spec.md scenario 6:
// Stop on a manager with an open connection must fire that connection's
// terminal callback with BadConnectionClosed before the loop reaches
// StateStopped.
func TestTCP_GracefulShutdownWithLiveConnection(t *testing.T) {
	l := newTestLoop(t)

	var terminalStatus Status
	var sawTerminal bool
	cb := func(id ConnID, ctx *any, status Status, params Params, msg []byte) {
		if status != StatusGood {
			sawTerminal = true
			terminalStatus = status
		}
	}

	tcp := NewTCP("tcp", cb, nil, WithListenPort(14842))
	require.NoError(t, l.RegisterSource(tcp))
	require.NoError(t, l.Start())
	for i := 0; i < 2; i++ {
		require.NoError(t, l.Run(5))
	}

	_, err := tcp.OpenConnection(NewParams("hostname", "127.0.0.1", "port", uint16(14842)), nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Run(5))
	}

	l.Stop()
	stopped := false
	for i := 0; i < 1000 && !stopped; i++ {
		require.NoError(t, l.Run(1))
		stopped = l.state == StateStopped
	}
	require.True(t, stopped)
	require.True(t, sawTerminal)
	assert.Equal(t, StatusBadConnectionClosed, terminalStatus)
}
