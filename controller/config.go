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

import "time"

// Config is the whole proxy-core configuration tree: frontends bind to an
// address and hand accepted connections to a named backend, backends hold
// the servers a stream may be assigned to, and the remaining sections wire
// up replication, the CLI and access logging.
type Config struct {
	Frontends []FrontendConfig `config:"frontends"`
	Backends  []BackendConfig  `config:"backends"`
	Peers     PeersConfig      `config:"peers"`
	CLI       CLIConfig        `config:"cli"`
	Log       LogConfig        `config:"log"`
}

// FrontendConfig is one listening point.
type FrontendConfig struct {
	Name           string        `config:"name"`
	Bind           string        `config:"bind"`
	Backend        string        `config:"backend"`
	ConnectTimeout time.Duration `config:"connectTimeout"`
	ClientTimeout  time.Duration `config:"clientTimeout"`
	ServerTimeout  time.Duration `config:"serverTimeout"`
}

func (c FrontendConfig) getConnectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return time.Second
	}
	return c.ConnectTimeout
}

// BackendConfig names a pool of servers reachable through simple
// round-robin assignment, plus how many times a failed connect attempt may
// be redispatched to another server before the stream gives up.
type BackendConfig struct {
	Name       string         `config:"name"`
	Servers    []ServerConfig `config:"servers"`
	Retries    int            `config:"retries"`
	StickySize int            `config:"stickyTableSize"`
}

func (c BackendConfig) getRetries() int {
	if c.Retries <= 0 {
		return 3
	}
	return c.Retries
}

// ServerConfig is one backend member.
type ServerConfig struct {
	Name string `config:"name"`
	Addr string `config:"addr"`
}

// PeersConfig is a single peers section: the local identity plus every
// remote sibling replicating the same stick-tables.
type PeersConfig struct {
	Name          string              `config:"name"`
	Bind          string              `config:"bind"`
	ResyncTimeout time.Duration       `config:"resyncTimeout"`
	Peers         []PeerEntryConfig   `config:"peers"`
}

// PeerEntryConfig is one member of a peers section.
type PeerEntryConfig struct {
	Name  string `config:"name"`
	Addr  string `config:"address"`
	Local bool   `config:"local"`
}

func (c PeersConfig) Enabled() bool { return c.Name != "" }

// CLIConfig binds the stats/admin socket.
type CLIConfig struct {
	Bind  string `config:"bind"`
	Level string `config:"level"`
}

func (c CLIConfig) Enabled() bool { return c.Bind != "" }

// LogConfig names the `log` target lines (as accepted by
// logpipe.ParseTargetLine) and the log-format string applied to every one
// of them.
type LogConfig struct {
	Targets []string `config:"targets"`
	Format  string   `config:"format"`
}

func (c LogConfig) getFormat() string {
	if c.Format == "" {
		return `%ci:%cp [%t] %b/%s %TT %ST %B %ID`
	}
	return c.Format
}
