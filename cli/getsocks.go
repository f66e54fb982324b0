// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"encoding/binary"
	"net"
	"syscall"

	"github.com/pkg/errors"
)

// maxSendFD bounds how many file descriptors travel in one SCM_RIGHTS
// batch, keeping each control message within typical kernel limits.
const maxSendFD = 200

// ListenerFD describes one open listener whose file descriptor is being
// handed to a receiving process.
type ListenerFD struct {
	FD        int
	Namespace string
	Ifname    string
	Options   uint32
}

// SendListenerFDs transfers listeners over a unix-domain socket using
// SCM_RIGHTS, preceded by a total-count header and, per fd, a small
// structured header of {namespace, ifname, options}. It sends in batches
// of at most maxSendFD and waits for a one-byte ack after each batch,
// aborting the transfer if the ack never arrives.
func SendListenerFDs(conn *net.UnixConn, listeners []ListenerFD) error {
	if err := writeUint32(conn, uint32(len(listeners))); err != nil {
		return errors.Wrap(err, "cli: _getsocks write total count")
	}

	for start := 0; start < len(listeners); start += maxSendFD {
		end := start + maxSendFD
		if end > len(listeners) {
			end = len(listeners)
		}
		batch := listeners[start:end]

		var payload []byte
		fds := make([]int, 0, len(batch))
		for _, l := range batch {
			payload = append(payload, encodeListenerHeader(l)...)
			fds = append(fds, l.FD)
		}

		rights := syscall.UnixRights(fds...)
		if _, _, err := conn.WriteMsgUnix(payload, rights, nil); err != nil {
			return errors.Wrapf(err, "cli: _getsocks send batch [%d,%d)", start, end)
		}
		if err := readAck(conn); err != nil {
			return errors.Wrapf(err, "cli: _getsocks batch [%d,%d) not acked", start, end)
		}
	}
	return nil
}

// RecvListenerFDs is the receiving side of SendListenerFDs: it reads the
// total count, then each batch's headers and fds, acking every batch it
// successfully decodes.
func RecvListenerFDs(conn *net.UnixConn) ([]ListenerFD, error) {
	total, err := readUint32(conn)
	if err != nil {
		return nil, errors.Wrap(err, "cli: _getsocks read total count")
	}

	out := make([]ListenerFD, 0, total)
	for len(out) < int(total) {
		batch, err := recvBatch(conn)
		if err != nil {
			return out, err
		}
		out = append(out, batch...)
		if err := sendAck(conn); err != nil {
			return out, errors.Wrap(err, "cli: _getsocks ack batch")
		}
	}
	return out, nil
}

func recvBatch(conn *net.UnixConn) ([]ListenerFD, error) {
	buf := make([]byte, 64*maxSendFD)
	oob := make([]byte, syscall.CmsgSpace(4*maxSendFD))

	n, oobn, _, _, err := conn.ReadMsgUnix(buf, oob)
	if err != nil {
		return nil, errors.Wrap(err, "cli: _getsocks read batch")
	}

	scms, err := syscall.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil, errors.Wrap(err, "cli: _getsocks parse control message")
	}
	var fds []int
	for _, scm := range scms {
		batchFDs, err := syscall.ParseUnixRights(&scm)
		if err != nil {
			return nil, errors.Wrap(err, "cli: _getsocks parse unix rights")
		}
		fds = append(fds, batchFDs...)
	}

	listeners, err := decodeListenerHeaders(buf[:n], fds)
	if err != nil {
		return nil, err
	}
	return listeners, nil
}

func encodeListenerHeader(l ListenerFD) []byte {
	var buf []byte
	buf = appendLenPrefixed(buf, l.Namespace)
	buf = appendLenPrefixed(buf, l.Ifname)
	var opts [4]byte
	binary.BigEndian.PutUint32(opts[:], l.Options)
	return append(buf, opts[:]...)
}

func decodeListenerHeaders(buf []byte, fds []int) ([]ListenerFD, error) {
	var out []ListenerFD
	pos := 0
	for i := 0; pos < len(buf); i++ {
		if i >= len(fds) {
			return nil, errors.New("cli: _getsocks more headers than fds received")
		}
		ns, n, err := readLenPrefixed(buf[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		ifname, n, err := readLenPrefixed(buf[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		if pos+4 > len(buf) {
			return nil, errors.New("cli: _getsocks truncated options field")
		}
		opts := binary.BigEndian.Uint32(buf[pos : pos+4])
		pos += 4

		out = append(out, ListenerFD{FD: fds[i], Namespace: ns, Ifname: ifname, Options: opts})
	}
	return out, nil
}

func appendLenPrefixed(dst []byte, s string) []byte {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(s)))
	dst = append(dst, l[:]...)
	return append(dst, s...)
}

func readLenPrefixed(src []byte) (string, int, error) {
	if len(src) < 2 {
		return "", 0, errors.New("cli: _getsocks truncated length prefix")
	}
	l := int(binary.BigEndian.Uint16(src[:2]))
	if 2+l > len(src) {
		return "", 0, errors.New("cli: _getsocks truncated field")
	}
	return string(src[2 : 2+l]), 2 + l, nil
}

func writeUint32(conn *net.UnixConn, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := conn.Write(buf[:])
	return err
}

func readUint32(conn *net.UnixConn) (uint32, error) {
	var buf [4]byte
	if _, err := conn.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func sendAck(conn *net.UnixConn) error {
	_, err := conn.Write([]byte{1})
	return err
}

func readAck(conn *net.UnixConn) error {
	var buf [1]byte
	n, err := conn.Read(buf[:])
	if err != nil {
		return err
	}
	if n != 1 || buf[0] != 1 {
		return errors.New("cli: _getsocks missing ack byte")
	}
	return nil
}
