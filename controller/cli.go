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
	"fmt"
	"net"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/gobalance/gobalance/cli"
	"github.com/gobalance/gobalance/common"
)

// cliServer is the admin/stats socket: one Applet per accepted connection,
// dispatching against a small fixed command set built from the live
// Controller rather than the generic plugin registry a full stats socket
// would load commands from.
type cliServer struct {
	cfg          CLIConfig
	defaultLevel cli.Level
	commands     map[string]*cli.Command
	ctrl         *Controller

	ln net.Listener
}

func newCLIServer(cfg CLIConfig, c *Controller) *cliServer {
	lvl := cli.LevelOperator
	if l, ok := cli.ParseLevel(cfg.Level); ok {
		lvl = l
	}
	cs := &cliServer{cfg: cfg, defaultLevel: lvl, ctrl: c}
	cs.commands = map[string]*cli.Command{
		"show": {Name: "show", MinLevel: cli.LevelUser, Run: cs.runShow},
	}
	return cs
}

func (cs *cliServer) Start() error {
	ln, err := net.Listen("tcp", cs.cfg.Bind)
	if err != nil {
		return errors.Wrap(err, "controller: listen cli socket")
	}
	cs.ln = ln
	go cs.acceptLoop()
	return nil
}

func (cs *cliServer) Stop() {
	if cs.ln != nil {
		cs.ln.Close()
	}
}

func (cs *cliServer) acceptLoop() {
	for {
		conn, err := cs.ln.Accept()
		if err != nil {
			return
		}
		go cs.serveConn(conn)
	}
}

func (cs *cliServer) serveConn(conn net.Conn) {
	defer conn.Close()

	applet := cli.NewApplet(cs.defaultLevel, cs.commands)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		responses, err := applet.FeedLine(scanner.Text())
		if err != nil {
			fmt.Fprintf(conn, "%s\n", err.Error())
			return
		}
		for _, r := range responses {
			fmt.Fprintf(conn, "%s\n", r)
		}
		if applet.State == cli.StateEnd {
			return
		}
	}
}

func (cs *cliServer) runShow(s *cli.Applet, args []string, payload string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: show info|stat")
	}
	switch args[0] {
	case "info":
		return cs.showInfo(), nil
	case "stat":
		return cs.showStat(), nil
	default:
		return "", errors.Errorf("unknown show target %q", args[0])
	}
}

func (cs *cliServer) showInfo() string {
	bi := cs.ctrl.buildInfo
	uptime := time.Now().Unix() - common.Started()
	return fmt.Sprintf("Name: %s\nVersion: %s\nBuild: %s (%s)\nUptime: %ds\nCurrStreams: %d",
		common.App, bi.Version, bi.GitHash, bi.Time, uptime, atomic.LoadInt64(&cs.ctrl.activeStreams))
}

func (cs *cliServer) showStat() string {
	names := make([]string, 0, len(cs.ctrl.backends.backends))
	for name := range cs.ctrl.backends.backends {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		b := cs.ctrl.backends.backends[name]
		for _, srv := range b.Servers() {
			lines = append(lines, fmt.Sprintf("%s,%s,%s,%d", b.Name, srv.Name, srv.Addr, srv.Current()))
		}
	}
	return strings.Join(lines, "\n")
}
