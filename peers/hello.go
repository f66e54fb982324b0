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

package peers

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ProtocolMajor and ProtocolMinor identify the version this implementation
// speaks. PeerDowngradeMinorVer is the lowest minor version that
// understands the timed update variant; anything below it forces the
// DWNGRD behavior for the whole connection.
const (
	ProtocolMajor         = 2
	ProtocolMinor         = 1
	PeerDowngradeMinorVer = 1
)

// StatusCode is the server's one-line reply to a client hello.
type StatusCode int

const (
	StatusSuccess      StatusCode = 200
	StatusTryAgain     StatusCode = 300
	StatusProtocol     StatusCode = 501
	StatusVersion      StatusCode = 502
	StatusUnknownHost  StatusCode = 503
	StatusUnknownPeer  StatusCode = 504
)

// Hello is the three-line handshake a connecting peer sends before any
// framed message: protocol version, the connecting process's local-peer
// id, then its own name/pid/relative-pid triple.
type Hello struct {
	Major, Minor  int
	LocalPeerID   string
	PeerName      string
	PID           int
	RelativePID   int
}

// WriteHello writes the three hello lines to w.
func WriteHello(w *bufio.Writer, h Hello) error {
	if _, err := fmt.Fprintf(w, "HAProxyS %d.%d\n", h.Major, h.Minor); err != nil {
		return errors.Wrap(err, "peers: write hello version line")
	}
	if _, err := fmt.Fprintf(w, "%s\n", h.LocalPeerID); err != nil {
		return errors.Wrap(err, "peers: write hello local-peer line")
	}
	if _, err := fmt.Fprintf(w, "%s %d %d\n", h.PeerName, h.PID, h.RelativePID); err != nil {
		return errors.Wrap(err, "peers: write hello identity line")
	}
	return w.Flush()
}

// ReadHello parses the three hello lines from r.
func ReadHello(r *bufio.Reader) (Hello, error) {
	var h Hello

	verLine, err := readLine(r)
	if err != nil {
		return h, errors.Wrap(err, "peers: read hello version line")
	}
	major, minor, err := parseVersionLine(verLine)
	if err != nil {
		return h, err
	}
	h.Major, h.Minor = major, minor

	localPeer, err := readLine(r)
	if err != nil {
		return h, errors.Wrap(err, "peers: read hello local-peer line")
	}
	h.LocalPeerID = localPeer

	identity, err := readLine(r)
	if err != nil {
		return h, errors.Wrap(err, "peers: read hello identity line")
	}
	fields := strings.Fields(identity)
	if len(fields) != 3 {
		return h, errors.Errorf("peers: malformed hello identity line %q", identity)
	}
	h.PeerName = fields[0]
	if h.PID, err = strconv.Atoi(fields[1]); err != nil {
		return h, errors.Wrap(err, "peers: parse hello pid")
	}
	if h.RelativePID, err = strconv.Atoi(fields[2]); err != nil {
		return h, errors.Wrap(err, "peers: parse hello relative pid")
	}
	return h, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseVersionLine(line string) (major, minor int, err error) {
	const prefix = "HAProxyS "
	if !strings.HasPrefix(line, prefix) {
		return 0, 0, errors.Errorf("peers: missing hello prefix in %q", line)
	}
	ver := strings.TrimPrefix(line, prefix)
	parts := strings.SplitN(ver, ".", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("peers: malformed hello version %q", ver)
	}
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, errors.Wrap(err, "peers: parse hello major version")
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, errors.Wrap(err, "peers: parse hello minor version")
	}
	return major, minor, nil
}

// Downgraded reports whether a peer announcing (major, minor) must be
// treated in DWNGRD mode: the timed update variant (expire-delta framing)
// is disabled for the life of the connection.
func Downgraded(major, minor int) bool {
	return major < ProtocolMajor || (major == ProtocolMajor && minor < PeerDowngradeMinorVer)
}
