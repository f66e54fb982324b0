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
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/gobalance/gobalance/stick"
)

// Server is one backend member. cur tracks how many streams currently have
// it assigned, maintained through Queue/Dequeue.
type Server struct {
	Name string
	Addr string

	cur int64
}

func (s *Server) queue()          { atomic.AddInt64(&s.cur, 1) }
func (s *Server) dequeue()        { atomic.AddInt64(&s.cur, -1) }
func (s *Server) Current() int64  { return atomic.LoadInt64(&s.cur) }

// Backend is a named pool of servers a stream may be assigned to. Selection
// is plain round-robin, optionally steered by a stick-table: no scoring or
// weighting algorithm lives here, just the assign/queue/dequeue hooks a
// stream needs to pick and release a server.
type Backend struct {
	Name    string
	Retries int
	servers []*Server
	next    uint64

	sticky *stick.Table // nil when the backend carries no stickiness
}

func newBackend(cfg BackendConfig) (*Backend, error) {
	if cfg.Name == "" {
		return nil, errors.New("controller: backend requires a name")
	}
	if len(cfg.Servers) == 0 {
		return nil, errors.Errorf("controller: backend %q has no servers", cfg.Name)
	}

	b := &Backend{Name: cfg.Name, Retries: cfg.getRetries()}
	seen := make(map[string]bool)
	for _, sc := range cfg.Servers {
		if sc.Name == "" || sc.Addr == "" {
			return nil, errors.Errorf("controller: backend %q has a server with a missing name or addr", cfg.Name)
		}
		if seen[sc.Name] {
			return nil, errors.Errorf("controller: backend %q has duplicate server %q", cfg.Name, sc.Name)
		}
		seen[sc.Name] = true
		b.servers = append(b.servers, &Server{Name: sc.Name, Addr: sc.Addr})
	}
	if cfg.StickySize > 0 {
		b.sticky = stick.NewTable(cfg.Name, cfg.StickySize)
	}
	return b, nil
}

// byName returns the server registered under name, or nil.
func (b *Backend) byName(name string) *Server {
	for _, s := range b.servers {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Assign picks the next server in round-robin order, consulting the
// backend's stick-table first when key is non-empty and a prior assignment
// for it is still live.
func (b *Backend) Assign(key []byte) *Server {
	if len(b.servers) == 0 {
		return nil
	}

	if b.sticky != nil && len(key) > 0 {
		if e := b.sticky.Lookup(key); e != nil {
			if v, ok := e.Get(stick.DataOpaque); ok {
				if name, ok := v.([]byte); ok {
					if srv := b.byName(string(name)); srv != nil {
						b.Queue(srv)
						return srv
					}
				}
			}
		}
	}

	i := atomic.AddUint64(&b.next, 1) - 1
	srv := b.servers[i%uint64(len(b.servers))]
	b.Queue(srv)

	if b.sticky != nil && len(key) > 0 {
		e := b.sticky.GetOrCreate(key, 0)
		e.Set(stick.DataOpaque, []byte(srv.Name))
	}
	return srv
}

// Queue marks s as carrying one more assigned stream.
func (b *Backend) Queue(s *Server) { s.queue() }

// Dequeue marks s as having released one assigned stream.
func (b *Backend) Dequeue(s *Server) { s.dequeue() }

// Servers returns the backend's member list, for stats reporting.
func (b *Backend) Servers() []*Server { return b.servers }

// StickyTable returns the backend's stick-table, or nil when it carries no
// stickiness.
func (b *Backend) StickyTable() *stick.Table { return b.sticky }

// backendSet is the live collection of backends a controller dispatches
// against, swappable wholesale on reload.
type backendSet struct {
	backends map[string]*Backend
}

func newBackendSet(cfgs []BackendConfig) (*backendSet, error) {
	bs := &backendSet{backends: make(map[string]*Backend, len(cfgs))}

	var errs *multierror.Error
	for _, cfg := range cfgs {
		b, err := newBackend(cfg)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if _, dup := bs.backends[cfg.Name]; dup {
			errs = multierror.Append(errs, errors.Errorf("controller: duplicate backend %q", cfg.Name))
			continue
		}
		bs.backends[cfg.Name] = b
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return bs, nil
}

func (bs *backendSet) Get(name string) (*Backend, bool) {
	b, ok := bs.backends[name]
	return b, ok
}

// StickyTables collects every backend's stick-table, keyed by backend name,
// the set peers replication needs to know which local table an inbound
// update belongs to.
func (bs *backendSet) StickyTables() map[string]*stick.Table {
	tables := make(map[string]*stick.Table)
	for name, b := range bs.backends {
		if b.sticky != nil {
			tables[name] = b.sticky
		}
	}
	return tables
}

// Reload validates every backend in cfgs before committing any of them, so
// a single malformed entry never tears down an otherwise healthy set.
func (bs *backendSet) Reload(cfgs []BackendConfig) error {
	next, err := newBackendSet(cfgs)
	if err != nil {
		return err
	}
	bs.backends = next.backends
	return nil
}
