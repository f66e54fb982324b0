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
	"encoding/json"
	"net/http"
)

// serverStatus is the JSON shape returned by /-/status for one backend
// member, the HTTP analogue of the "show stat" line the CLI exposes.
type serverStatus struct {
	Name    string `json:"name"`
	Addr    string `json:"addr"`
	Current int64  `json:"current_sessions"`
}

type backendStatus struct {
	Name    string         `json:"name"`
	Servers []serverStatus `json:"servers"`
}

// handleStatus reports every configured backend's server pool and current
// assignment counts, for scripted health checks of the controller itself.
func (c *Controller) handleStatus(w http.ResponseWriter, r *http.Request) {
	var out []backendStatus
	for _, fe := range c.frontends {
		bs := backendStatus{Name: fe.backend.Name}
		for _, srv := range fe.backend.Servers() {
			bs.Servers = append(bs.Servers, serverStatus{
				Name:    srv.Name,
				Addr:    srv.Addr,
				Current: srv.Current(),
			})
		}
		out = append(out, bs)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
