package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pongrelay/wire"
)

func loopbackPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptErr := make(chan error, 1)
	var server net.Conn
	go func() {
		c, err := ln.Accept()
		server = c
		acceptErr <- err
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, <-acceptErr)

	return client, server
}

func TestSendAndRecv(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	sender := New(client)
	receiver := New(server)

	frame := wire.InputFrame{Frame: 42, Input: 0.5}
	require.NoError(t, sender.Send(frame))

	got, ok, err := receiver.TryRecvOne()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, frame, got)
}

func TestTryRecvOneWouldBlockReturnsFalse(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	receiver := New(server)
	receiver.SetNonBlocking()

	frame, ok, err := receiver.TryRecvOne()
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, wire.InputFrame{}, frame)
}

func TestTryRecvOneDrainsQueuedFrames(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	sender := New(client)
	receiver := New(server)
	receiver.SetNonBlocking()

	for i := uint32(0); i < 3; i++ {
		require.NoError(t, sender.Send(wire.InputFrame{Frame: i, Input: float32(i)}))
	}

	// Give the OS a moment to deliver the writes before polling.
	time.Sleep(10 * time.Millisecond)

	for i := uint32(0); i < 3; i++ {
		got, ok, err := receiver.TryRecvOne()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, wire.InputFrame{Frame: i, Input: float32(i)}, got)
	}

	_, ok, err := receiver.TryRecvOne()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTryRecvOneHardErrorAfterClose(t *testing.T) {
	client, server := loopbackPair(t)
	defer server.Close()

	receiver := New(server)
	receiver.SetNonBlocking()

	client.Close()

	_, ok, err := receiver.TryRecvOne()
	require.False(t, ok)
	require.Error(t, err)
}
