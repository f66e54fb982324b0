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

package logpipe

import (
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// sender owns one target's lazily-opened, non-blocking socket. The
// network ("unixgram" for an AF_UNIX target, "udp" for AF_INET) is
// inferred from the address once and the fd is opened on first send; a
// closed/broken conn is simply redialed on the next attempt.
type sender struct {
	mu       sync.Mutex
	addr     string
	network  string
	conn     net.Conn
	warnOnce sync.Once
}

func newSender(addr string) *sender {
	network := "udp"
	dialAddr := addr
	if strings.HasPrefix(addr, "unix@") {
		network = "unixgram"
		dialAddr = strings.TrimPrefix(addr, "unix@")
	} else if strings.HasPrefix(addr, "ipv4@") {
		dialAddr = strings.TrimPrefix(addr, "ipv4@")
	} else if strings.HasPrefix(addr, "ipv6@") {
		dialAddr = strings.TrimPrefix(addr, "ipv6@")
	} else if strings.HasPrefix(dialAddr, "/") {
		network = "unixgram"
	}
	return &sender{addr: dialAddr, network: network}
}

func (s *sender) dial() (net.Conn, error) {
	return net.Dial(s.network, s.addr)
}

// send writes line without blocking: the write deadline is set to "now",
// so a socket buffer that is actually full surfaces as a timeout, which
// this package treats the same way the original non-blocking EAGAIN path
// does — increment the dropped-logs counter and return nil rather than
// propagating a hard error. Other failures (e.g. the destination does not
// exist) are reported once per target via the sender's warnOnce.
func (s *sender) send(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		c, err := s.dial()
		if err != nil {
			s.warnOnce.Do(func() {
				os.Stderr.WriteString("logpipe: failed to open log target " + s.addr + ": " + err.Error() + "\n")
			})
			return nil
		}
		s.conn = c
	}

	_ = s.conn.SetWriteDeadline(time.Now())
	_, err := s.conn.Write(line)
	if err == nil {
		return nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		droppedLogs.Inc()
		return nil
	}
	s.conn.Close()
	s.conn = nil
	s.warnOnce.Do(func() {
		os.Stderr.WriteString("logpipe: send to " + s.addr + " failed: " + err.Error() + "\n")
	})
	return nil
}

func (s *sender) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
