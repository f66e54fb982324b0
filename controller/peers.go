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

package controller

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/gobalance/gobalance/internal/wait"
	"github.com/gobalance/gobalance/logger"
	"github.com/gobalance/gobalance/peers"
	"github.com/gobalance/gobalance/stick"
)

// stickyDataTypes is the fixed column schema every replicated table in this
// build carries: backend.go's stickiness feature stores a single OPAQUE
// column (the assigned server name), so there is no per-table STKTABLE_DEFINE
// negotiation to do, unlike a full HAProxy peers section whose tables can
// carry an arbitrary, configured set of counters.
var stickyDataTypes = []stick.DataType{stick.DataOpaque}

// peersRunner owns one peers.Section's listener, its outbound connections
// and the reconnect/liveness ticker. It replicates backend stickiness
// assignments to every established sibling as they happen, and teaches a
// newly established peer a full snapshot of every table up front (see
// teach) so it never has to rely solely on updates it happens to observe
// from that point on.
type peersRunner struct {
	cfg    PeersConfig
	sec    *peers.Section
	tables map[string]*stick.Table

	localName string
	pid       int

	ln     net.Listener
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	conns map[string]net.Conn
}

func newPeersRunner(cfg PeersConfig, tables map[string]*stick.Table) (*peersRunner, error) {
	sc := peers.SectionConfig{Name: cfg.Name, ResyncTimeout: cfg.ResyncTimeout}
	var localName, localAddr string
	for _, pc := range cfg.Peers {
		sc.Peers = append(sc.Peers, peers.PeerConfig{Name: pc.Name, Addr: pc.Addr, Local: pc.Local})
		if pc.Local {
			localName, localAddr = pc.Name, pc.Addr
		}
	}
	if localName == "" {
		return nil, errors.Errorf("peers section %q: no peer entry marked local", cfg.Name)
	}

	dial := func(addr string) (peers.PeerConn, error) {
		return net.DialTimeout("tcp", addr, 5*time.Second)
	}
	sec, err := sc.Build(false, dial)
	if err != nil {
		return nil, err
	}

	bind := cfg.Bind
	if bind == "" {
		bind = localAddr
	}
	if bind == "" {
		return nil, errors.Errorf("peers section %q: no bind address", cfg.Name)
	}
	cfg.Bind = bind

	return &peersRunner{
		cfg:       cfg,
		sec:       sec,
		tables:    tables,
		localName: localName,
		pid:       os.Getpid(),
		conns:     make(map[string]net.Conn),
	}, nil
}

func (pr *peersRunner) Start(parent context.Context) error {
	ln, err := net.Listen("tcp", pr.cfg.Bind)
	if err != nil {
		return errors.Wrapf(err, "peers: listen section %q", pr.cfg.Name)
	}
	pr.ln = ln
	pr.ctx, pr.cancel = context.WithCancel(parent)

	go pr.acceptLoop()
	go wait.Ticker(pr.ctx, time.Second, pr.tick)
	return nil
}

func (pr *peersRunner) Stop() {
	if pr.ln != nil {
		pr.ln.Close()
	}
	if pr.cancel != nil {
		pr.cancel()
	}
	pr.mu.Lock()
	for _, c := range pr.conns {
		c.Close()
	}
	pr.mu.Unlock()
}

func (pr *peersRunner) acceptLoop() {
	for {
		conn, err := pr.ln.Accept()
		if err != nil {
			select {
			case <-pr.ctx.Done():
				return
			default:
			}
			logger.Warnf("peers: accept on section %q failed: %v", pr.cfg.Name, err)
			continue
		}
		go pr.serveInbound(conn)
	}
}

func (pr *peersRunner) localHello() peers.Hello {
	return peers.Hello{
		Major:       peers.ProtocolMajor,
		Minor:       peers.ProtocolMinor,
		LocalPeerID: pr.localName,
		PeerName:    pr.localName,
		PID:         pr.pid,
		RelativePID: pr.pid,
	}
}

func (pr *peersRunner) serveInbound(conn net.Conn) {
	reader := bufio.NewReader(conn)
	hello, err := peers.ReadHello(reader)
	if err != nil {
		logger.Warnf("peers: section %q: read hello failed: %v", pr.cfg.Name, err)
		conn.Close()
		return
	}

	p, ok := pr.sec.Peers[hello.PeerName]
	if !ok || p.Local {
		logger.Warnf("peers: section %q: unknown peer %q", pr.cfg.Name, hello.PeerName)
		conn.Close()
		return
	}

	writer := bufio.NewWriter(conn)
	if err := peers.WriteHello(writer, pr.localHello()); err != nil {
		conn.Close()
		return
	}

	now := time.Now()
	p.MarkEstablished(conn, now)
	pr.mu.Lock()
	pr.conns[p.Name] = conn
	pr.mu.Unlock()

	pr.teach(p, conn)
	pr.serveConn(p, conn, reader)
}

func (pr *peersRunner) connect(p *peers.Peer) {
	p.MarkConnecting()
	go func() {
		conn, err := net.DialTimeout("tcp", p.Addr, 5*time.Second)
		if err != nil {
			logger.Warnf("peers: section %q: dial %q failed: %v", pr.cfg.Name, p.Name, err)
			p.Disconnect(time.Now())
			return
		}

		writer := bufio.NewWriter(conn)
		if err := peers.WriteHello(writer, pr.localHello()); err != nil {
			conn.Close()
			p.Disconnect(time.Now())
			return
		}
		reader := bufio.NewReader(conn)
		if _, err := peers.ReadHello(reader); err != nil {
			conn.Close()
			p.Disconnect(time.Now())
			return
		}

		now := time.Now()
		p.MarkEstablished(conn, now)
		pr.mu.Lock()
		pr.conns[p.Name] = conn
		pr.mu.Unlock()

		pr.teach(p, conn)
		pr.serveConn(p, conn, reader)
	}()
}

// wake is the PendingCheck callback's companion: nothing is ever queued
// for a peer because replication is pushed synchronously from
// broadcastUpdate, so there is never anything to wake a peer up for.
func (pr *peersRunner) wake(p *peers.Peer) {}

func (pr *peersRunner) pending(peerName string) bool { return false }

func (pr *peersRunner) tick() {
	pr.sec.Tick(time.Now(), pr.pending, pr.wake, pr.connect)
}

func (pr *peersRunner) serveConn(p *peers.Peer, conn net.Conn, reader *bufio.Reader) {
	defer func() {
		conn.Close()
		pr.mu.Lock()
		delete(pr.conns, p.Name)
		pr.mu.Unlock()
		p.Disconnect(time.Now())
	}()

	for {
		class, typ, payload, err := readFrame(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warnf("peers: section %q: %s: frame read failed: %v", pr.cfg.Name, p.Name, err)
			}
			return
		}
		p.MarkHeartbeat(time.Now())
		pr.handleFrame(p, class, typ, payload)
	}
}

func (pr *peersRunner) handleFrame(p *peers.Peer, class peers.MsgClass, typ peers.MsgType, payload []byte) {
	switch class {
	case peers.ClassControl:
		switch typ {
		case peers.CtrlResyncFinished:
			pr.sec.Resync.Finished()
		case peers.CtrlResyncPartial:
			pr.sec.Resync.Partial()
		}
	case peers.ClassStickTable:
		switch typ {
		case peers.StkBulkTeach:
			pr.applyBulkTeach(p, payload)
		default:
			pr.applyUpdate(p, typ, payload)
		}
	}
}

// teach sends conn a full snapshot of every local table, compressed as one
// snappy block, followed by a resync-finished control frame: a newly
// established peer starts from a consistent copy of every entry rather
// than depending only on whatever incremental updates it happens to
// observe afterward.
func (pr *peersRunner) teach(p *peers.Peer, conn net.Conn) {
	var raw []byte
	for name, tbl := range pr.tables {
		var entries []byte
		var count uint32
		tbl.Range(func(key []byte, e *stick.Entry) bool {
			u := peers.Update{Key: key, Data: make(map[stick.DataType]any, len(stickyDataTypes))}
			for _, dt := range stickyDataTypes {
				if v, ok := e.Get(dt); ok {
					u.Data[dt] = v
				}
			}
			body, _, err := peers.EncodeUpdate(u, peers.KeyString, stickyDataTypes, p.TxDict())
			if err != nil {
				logger.Warnf("peers: section %q: teach encode for table %q: %v", pr.cfg.Name, name, err)
				return true
			}
			var lenBuf [4]byte
			binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
			entries = append(entries, lenBuf[:]...)
			entries = append(entries, body...)
			count++
			return true
		})

		raw = append(raw, byte(len(name)))
		raw = append(raw, name...)
		var countBuf [4]byte
		binary.BigEndian.PutUint32(countBuf[:], count)
		raw = append(raw, countBuf[:]...)
		raw = append(raw, entries...)
	}

	payload := snappy.Encode(nil, raw)
	if err := writeFrame(conn, peers.ClassStickTable, peers.StkBulkTeach, payload); err != nil {
		logger.Warnf("peers: section %q: teach %q failed: %v", pr.cfg.Name, p.Name, err)
		return
	}
	if err := writeFrame(conn, peers.ClassControl, peers.CtrlResyncFinished, nil); err != nil {
		logger.Warnf("peers: section %q: resync-finished to %q failed: %v", pr.cfg.Name, p.Name, err)
		return
	}
	pr.sec.FinishTeaching(p.Name)
}

// applyBulkTeach decodes a snappy-compressed snapshot sent by teach and
// merges every entry into the matching local table, skipping the entries
// of tables this side doesn't know about: the per-table
// and per-entry length prefixes make every block self-delimiting even
// when the table name is unrecognized.
func (pr *peersRunner) applyBulkTeach(p *peers.Peer, payload []byte) {
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		logger.Warnf("peers: section %q: teach decode from %q: %v", pr.cfg.Name, p.Name, err)
		return
	}

	for len(raw) > 0 {
		nameLen := int(raw[0])
		if 1+nameLen+4 > len(raw) {
			logger.Warnf("peers: section %q: truncated teach block from %q", pr.cfg.Name, p.Name)
			return
		}
		name := string(raw[1 : 1+nameLen])
		count := binary.BigEndian.Uint32(raw[1+nameLen : 1+nameLen+4])
		raw = raw[1+nameLen+4:]

		tbl := pr.tables[name]
		for i := uint32(0); i < count; i++ {
			if len(raw) < 4 {
				logger.Warnf("peers: section %q: truncated teach entry from %q", pr.cfg.Name, p.Name)
				return
			}
			bodyLen := binary.BigEndian.Uint32(raw[:4])
			raw = raw[4:]
			if uint32(len(raw)) < bodyLen {
				logger.Warnf("peers: section %q: truncated teach entry body from %q", pr.cfg.Name, p.Name)
				return
			}
			body := raw[:bodyLen]
			raw = raw[bodyLen:]

			if tbl == nil {
				continue
			}
			u, err := peers.DecodeUpdate(peers.StkIncUpdate, peers.KeyString, 0, stickyDataTypes, body, p.RxDict())
			if err != nil {
				logger.Warnf("peers: section %q: decode teach entry for table %q: %v", pr.cfg.Name, name, err)
				continue
			}
			entry := tbl.GetOrCreate(u.Key, 0)
			for _, dt := range stickyDataTypes {
				if v, ok := u.Data[dt]; ok {
					entry.Set(dt, v)
				}
			}
		}
	}
}

func (pr *peersRunner) applyUpdate(p *peers.Peer, typ peers.MsgType, payload []byte) {
	if len(payload) < 1 {
		return
	}
	tnLen := int(payload[0])
	if 1+tnLen > len(payload) {
		logger.Warnf("peers: section %q: truncated stick-table message", pr.cfg.Name)
		return
	}
	tableName := string(payload[1 : 1+tnLen])
	rest := payload[1+tnLen:]

	tbl, ok := pr.tables[tableName]
	if !ok {
		return
	}

	u, err := peers.DecodeUpdate(typ, peers.KeyString, 0, stickyDataTypes, rest, p.RxDict())
	if err != nil {
		logger.Warnf("peers: section %q: decode update for table %q: %v", pr.cfg.Name, tableName, err)
		return
	}

	entry := tbl.GetOrCreate(u.Key, 0)
	if v, ok := u.Data[stick.DataOpaque]; ok {
		entry.Set(stick.DataOpaque, v)
	}
}

// broadcastUpdate pushes a backend stickiness assignment to every
// established sibling, fire-and-forget: a peer that is not currently
// connected simply misses it and will re-learn it lazily on its own next
// assignment, since stickiness is advisory, not authoritative state.
func (pr *peersRunner) broadcastUpdate(tableName string, key []byte, serverName string) {
	pr.mu.Lock()
	conns := make(map[string]net.Conn, len(pr.conns))
	for name, c := range pr.conns {
		conns[name] = c
	}
	pr.mu.Unlock()

	for name, conn := range conns {
		p, ok := pr.sec.Peers[name]
		if !ok {
			continue
		}

		u := peers.Update{Key: key, Data: map[stick.DataType]any{stick.DataOpaque: []byte(serverName)}}
		body, typ, err := peers.EncodeUpdate(u, peers.KeyString, stickyDataTypes, p.TxDict())
		if err != nil {
			logger.Warnf("peers: encode update for %q: %v", name, err)
			continue
		}

		payload := make([]byte, 0, 1+len(tableName)+len(body))
		payload = append(payload, byte(len(tableName)))
		payload = append(payload, tableName...)
		payload = append(payload, body...)

		if err := writeFrame(conn, peers.ClassStickTable, typ, payload); err != nil {
			logger.Warnf("peers: write to %q failed: %v", name, err)
			conn.Close()
		}
	}
}

func readFrame(r *bufio.Reader) (peers.MsgClass, peers.MsgType, []byte, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, nil, err
	}
	length := binary.BigEndian.Uint32(hdr[:4])
	class := peers.MsgClass(hdr[4])
	typ := peers.MsgType(hdr[5])

	if length == 0 {
		return class, typ, nil, nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, 0, nil, err
	}
	return class, typ, payload, nil
}

func writeFrame(w io.Writer, class peers.MsgClass, typ peers.MsgType, payload []byte) error {
	hdr := make([]byte, 6)
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(payload)))
	hdr[4] = byte(class)
	hdr[5] = byte(typ)
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}
