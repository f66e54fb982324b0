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

// Package controller wires the stream engine, the backend pool, peers
// replication, the CLI socket and the access log into one running proxy
// core: process_stream itself never touches a net.Conn, so this package is
// where the state machine meets actual sockets.
package controller

import (
	"context"
	"encoding/binary"
	"net"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gobalance/gobalance/chn"
	"github.com/gobalance/gobalance/common"
	"github.com/gobalance/gobalance/common/socket"
	"github.com/gobalance/gobalance/confengine"
	"github.com/gobalance/gobalance/exporter"
	"github.com/gobalance/gobalance/internal/labels"
	"github.com/gobalance/gobalance/internal/sigs"
	"github.com/gobalance/gobalance/logger"
	"github.com/gobalance/gobalance/logpipe"
	"github.com/gobalance/gobalance/server"
	"github.com/gobalance/gobalance/stream"
)

// frontend is one configured listening point, bound once Start runs.
type frontend struct {
	cfg     FrontendConfig
	backend *Backend
	ln      net.Listener
	reqSeq  int64
}

// Controller owns every long-lived piece of the proxy core: the frontends
// it listens on, the backend pool streams are assigned against, and the
// optional peers and CLI sockets.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg       Config
	buildInfo common.BuildInfo

	backends  *backendSet
	frontends []*frontend
	accessLog *accessLog
	exporter  *exporter.Exporter

	peersSec *peersRunner
	cliSrv   *cliServer

	svr *server.Server

	activeStreams int64
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}

	if opts.Filename == "" {
		opts.Filename = "gobalance.log"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}

	logger.SetOptions(opts)
	return nil
}

func New(conf *confengine.Config, buildInfo common.BuildInfo) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var cfg Config
	if err := conf.UnpackChild("controller", &cfg); err != nil {
		return nil, err
	}

	backends, err := newBackendSet(cfg.Backends)
	if err != nil {
		return nil, err
	}

	al, err := newAccessLog(cfg.Log)
	if err != nil {
		return nil, err
	}

	svr, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	exp, err := exporter.New(conf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		buildInfo: buildInfo,
		backends:  backends,
		accessLog: al,
		exporter:  exp,
		svr:       svr,
	}

	for _, fc := range cfg.Frontends {
		b, ok := backends.Get(fc.Backend)
		if !ok {
			return nil, errors.Errorf("controller: frontend %q references unknown backend %q", fc.Name, fc.Backend)
		}
		c.frontends = append(c.frontends, &frontend{cfg: fc, backend: b})
	}

	if cfg.Peers.Enabled() {
		pr, err := newPeersRunner(cfg.Peers, backends.StickyTables())
		if err != nil {
			return nil, err
		}
		c.peersSec = pr
	}

	if cfg.CLI.Enabled() {
		c.cliSrv = newCLIServer(cfg.CLI, c)
	}

	return c, nil
}

func (c *Controller) Start() error {
	c.setupServer()
	c.exporter.Start()

	for _, fe := range c.frontends {
		ln, err := net.Listen("tcp", fe.cfg.Bind)
		if err != nil {
			return errors.Wrapf(err, "controller: listen frontend %q", fe.cfg.Name)
		}
		fe.ln = ln
		go c.acceptLoop(fe)
	}

	if c.peersSec != nil {
		if err := c.peersSec.Start(c.ctx); err != nil {
			return err
		}
	}

	if c.cliSrv != nil {
		if err := c.cliSrv.Start(); err != nil {
			return err
		}
	}

	if c.svr != nil {
		go func() {
			if err := c.svr.ListenAndServe(); err != nil {
				logger.Errorf("failed to start server: %v", err)
			}
		}()
	}

	return nil
}

// acceptLoop owns one frontend's listener for its lifetime, handing every
// accepted connection to its own goroutine.
func (c *Controller) acceptLoop(fe *frontend) {
	for {
		conn, err := fe.ln.Accept()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return
			default:
			}
			logger.Warnf("controller: accept on frontend %q failed: %v", fe.cfg.Name, err)
			continue
		}
		go c.serveConn(fe, conn)
	}
}

// serveConn drives a single accepted connection end to end: it assigns and
// dials a backend server (retrying through the stream's own connect-retry
// bookkeeping), tunnels bytes in both directions, then emits one access log
// record once the stream is done.
func (c *Controller) serveConn(fe *frontend, front net.Conn) {
	defer front.Close()

	atomic.AddInt64(&c.activeStreams, 1)
	defer atomic.AddInt64(&c.activeStreams, -1)

	acceptedAt := time.Now()

	st := stream.NewStream(nil, nil)
	st.Front.AttachConn(front)

	retries := fe.backend.Retries
	st.Back.MaxRetries = retries
	st.Back.RetryCount = retries

	key := clientKey(front)
	connectTimeout := fe.cfg.getConnectTimeout()

	back, srv, err := c.dialBackend(st, fe.backend, key, connectTimeout)
	if err != nil {
		logger.Warnf("controller: frontend %q: %v", fe.cfg.Name, err)
		return
	}
	defer func() {
		back.Close()
		fe.backend.Dequeue(srv)
	}()

	if c.peersSec != nil && len(key) > 0 && fe.backend.StickyTable() != nil {
		c.peersSec.broadcastUpdate(fe.backend.Name, key, srv.Name)
	}

	st.Back.AttachConn(back)
	st.Res.Set(chn.FlagReadAttached)
	now := time.Now()
	st.Res.ArmRead(now)
	st.Res.ArmWrite(now)

	rec := c.buildRecord(fe, front, back, srv, acceptedAt)

	errc := make(chan error, 2)
	go func() { errc <- pumpChannel(front, back, st.Req, &rec.BytesRead) }()
	go func() { errc <- pumpChannel(back, front, st.Res, nil) }()

	<-errc
	// One direction closed; tear down both ends so the other pump's
	// blocking Read/Write unwinds instead of leaking its goroutine.
	front.Close()
	back.Close()
	<-errc

	st.Front.Close()
	st.Back.Close()

	rec.Timers.TT = time.Since(acceptedAt).Milliseconds()
	rec.Timers.Tq, rec.Timers.Tc, rec.Timers.Tr = 0, rec.Timers.TT, 0
	rec.Timers.Ts, rec.Timers.Td, rec.Timers.Ti, rec.Timers.Th = -1, -1, -1, -1
	rec.Status = 200
	rec.TermState = "--"

	c.accessLog.emit(rec)
	c.exporter.Export(rec)
}

// dialBackend assigns a server and dials it, replaying a failed attempt
// through the stream's connect-retry state machine (Stream.Process) so the
// redispatch and back-off rules live in exactly one place.
func (c *Controller) dialBackend(st *stream.Stream, b *Backend, key []byte, timeout time.Duration) (net.Conn, *Server, error) {
	for {
		srv := b.Assign(key)
		if srv == nil {
			return nil, nil, errors.Errorf("backend %q has no servers", b.Name)
		}

		st.Back.State = stream.SIStateCON
		st.Back.Exp = time.Now().Add(timeout)
		st.Back.ConnectTimeout = timeout

		conn, err := net.DialTimeout("tcp", srv.Addr, timeout)
		if err == nil {
			return conn, srv, nil
		}

		b.Dequeue(srv)
		connectFailuresTotal.WithLabelValues(b.Name, srv.Name).Inc()
		logger.Warnf("controller: connect to backend %q server %q failed: %v", b.Name, srv.Name, err)

		st.Back.Set(stream.SIFlagError)
		_, done := st.Process(time.Now())
		st.Back.Clear(stream.SIFlagError)
		if done || st.Back.State == stream.SIStateCLO {
			return nil, nil, errors.Errorf("backend %q: connect retries exhausted", b.Name)
		}

		if wait := time.Until(st.Back.Exp); wait > 0 {
			time.Sleep(wait)
		}
	}
}

func (c *Controller) buildRecord(fe *frontend, front, back net.Conn, srv *Server, acceptedAt time.Time) *logpipe.Record {
	client := socket.FromAddrs(front.LocalAddr(), front.RemoteAddr())
	upstream := socket.FromAddrs(back.LocalAddr(), back.RemoteAddr())

	return &logpipe.Record{
		ClientAddr:   client.SrcIP.NetIP(),
		ClientPort:   int(client.SrcPort),
		FrontendAddr: client.DstIP.NetIP(),
		FrontendPort: int(client.DstPort),
		ServerAddr:   upstream.SrcIP.NetIP(),
		ServerPort:   int(upstream.SrcPort),
		AcceptTime:   acceptedAt,
		UniqueID:     logpipe.NewUniqueID(),
		ReqCounter:   atomic.AddInt64(&fe.reqSeq, 1),
		BackendName:  fe.backend.Name,
		ServerName:   srv.Name,
		FrontendName: fe.cfg.Name,
	}
}

// clientKey derives a fixed-width stick-table key from the client's
// source address: the address is wrapped as a label set (so a composite
// key gains fields the same way a metric identity would) and reduced to
// its hash, the same sort+hash step internal/labels was built to do for
// deduplicating metric identities.
func clientKey(front net.Conn) []byte {
	host, _, err := net.SplitHostPort(front.RemoteAddr().String())
	if err != nil {
		return nil
	}
	ls := labels.Labels{{Name: "src", Value: host}}
	sort.Sort(ls)

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, ls.Hash())
	return key
}

func (c *Controller) recordMetrics() {
	uptime.Set(float64(time.Now().Unix() - common.Started()))
	buildInfo.WithLabelValues(c.buildInfo.Version, c.buildInfo.GitHash, c.buildInfo.Time).Inc()

	activeStreams.Set(float64(atomic.LoadInt64(&c.activeStreams)))
	for _, fe := range c.frontends {
		for _, srv := range fe.backend.Servers() {
			serverCurrentSessions.WithLabelValues(fe.backend.Name, srv.Name).Set(float64(srv.Current()))
		}
	}
}

func (c *Controller) setupServer() {
	if c.svr == nil {
		return
	}

	c.svr.RegisterGetRoute("/metrics", func(w http.ResponseWriter, r *http.Request) {
		c.recordMetrics()
		promhttp.Handler().ServeHTTP(w, r)
	})
	c.svr.RegisterGetRoute("/-/status", c.handleStatus)

	c.svr.RegisterPostRoute("/-/logger", func(w http.ResponseWriter, r *http.Request) {
		level := r.FormValue("level")
		logger.SetLoggerLevel(level)
		w.Write([]byte(`{"status": "success"}`))
	})
	c.svr.RegisterPostRoute("/-/reload", func(w http.ResponseWriter, r *http.Request) {
		if err := sigs.SelfReload(); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}
	})
}

// Reload re-validates and swaps in a fresh backend set, leaving frontends,
// peers and the CLI socket untouched: adding or removing a listener or a
// peers/CLI section requires a restart, matching how the teacher's own
// Reload only ever touches the one thing it can safely swap live.
func (c *Controller) Reload(conf *confengine.Config) error {
	var cfg Config
	if err := conf.UnpackChild("controller", &cfg); err != nil {
		return err
	}
	return c.backends.Reload(cfg.Backends)
}

func (c *Controller) Stop() {
	for _, fe := range c.frontends {
		if fe.ln != nil {
			fe.ln.Close()
		}
	}
	if c.peersSec != nil {
		c.peersSec.Stop()
	}
	if c.cliSrv != nil {
		c.cliSrv.Stop()
	}
	c.accessLog.Close()
	c.exporter.Close()
	c.cancel()
}
