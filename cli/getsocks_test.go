package cli

import (
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unixSocketPair returns a connected pair of *net.UnixConn backed by a real
// unix domain socket, required since ReadMsgUnix/WriteMsgUnix do not work
// over net.Pipe.
func unixSocketPair(t *testing.T) (*net.UnixConn, *net.UnixConn) {
	t.Helper()
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_DGRAM, 0)
	require.NoError(t, err)

	conns := make([]*net.UnixConn, 2)
	for i, fd := range fds {
		f := os.NewFile(uintptr(fd), "getsocks")
		c, err := net.FileConn(f)
		f.Close()
		require.NoError(t, err)
		conns[i] = c.(*net.UnixConn)
		t.Cleanup(func() { c.Close() })
	}
	return conns[0], conns[1]
}

func TestSendRecvListenerFDsRoundTrip(t *testing.T) {
	server, client := unixSocketPair(t)

	f, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer f.Close()

	listeners := []ListenerFD{
		{FD: int(f.Fd()), Namespace: "ns0", Ifname: "eth0", Options: 7},
		{FD: int(f.Fd()), Namespace: "", Ifname: "lo", Options: 0},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- SendListenerFDs(client, listeners) }()

	got, err := RecvListenerFDs(server)
	require.NoError(t, err)
	require.NoError(t, <-errCh)

	require.Len(t, got, 2)
	assert.Equal(t, "ns0", got[0].Namespace)
	assert.Equal(t, "eth0", got[0].Ifname)
	assert.Equal(t, uint32(7), got[0].Options)
	assert.Equal(t, "", got[1].Namespace)
	assert.Equal(t, "lo", got[1].Ifname)
}

func TestEncodeDecodeListenerHeaderRoundTrip(t *testing.T) {
	l := ListenerFD{Namespace: "prod", Ifname: "eth1", Options: 42}
	buf := encodeListenerHeader(l)

	got, err := decodeListenerHeaders(buf, []int{9})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].FD)
	assert.Equal(t, "prod", got[0].Namespace)
	assert.Equal(t, "eth1", got[0].Ifname)
	assert.Equal(t, uint32(42), got[0].Options)
}

func TestDecodeListenerHeadersMoreHeadersThanFDsErrors(t *testing.T) {
	l := ListenerFD{Namespace: "a", Ifname: "b", Options: 1}
	buf := append(encodeListenerHeader(l), encodeListenerHeader(l)...)

	_, err := decodeListenerHeaders(buf, []int{1})
	assert.Error(t, err)
}
