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
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// PeerConfig is one remote entry of a peers section's configuration.
type PeerConfig struct {
	Name  string `config:"name"`
	Addr  string `config:"address"`
	Local bool   `config:"local"`
}

// SectionConfig is a peers section as parsed out of the configuration
// tree.
type SectionConfig struct {
	Name          string        `config:"name"`
	ResyncTimeout time.Duration `config:"resyncTimeout"`
	Peers         []PeerConfig  `config:"peers"`
}

// Validate reports every independent problem with a section's
// configuration at once, rather than stopping at the first.
func (c SectionConfig) Validate() error {
	var errs *multierror.Error

	if c.Name == "" {
		errs = multierror.Append(errs, errors.New("peers: section name is required"))
	}
	if c.ResyncTimeout <= 0 {
		errs = multierror.Append(errs, errors.Errorf("peers section %q: resyncTimeout must be positive", c.Name))
	}

	localCount := 0
	seen := make(map[string]bool)
	for _, p := range c.Peers {
		if p.Name == "" {
			errs = multierror.Append(errs, errors.Errorf("peers section %q: peer entry missing a name", c.Name))
			if p.Local {
				localCount++
			}
			continue
		}
		if seen[p.Name] {
			errs = multierror.Append(errs, errors.Errorf("peers section %q: duplicate peer %q", c.Name, p.Name))
		}
		seen[p.Name] = true

		if p.Local {
			localCount++
			continue
		}
		if p.Addr == "" {
			errs = multierror.Append(errs, errors.Errorf("peers section %q: peer %q missing an address", c.Name, p.Name))
		}
	}
	if localCount > 1 {
		errs = multierror.Append(errs, errors.Errorf("peers section %q: more than one peer marked local", c.Name))
	}

	return errs.ErrorOrNil()
}

// Build constructs a Section from a validated configuration.
func (c SectionConfig) Build(hasOldPIDs bool, dial Dialer) (*Section, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s := NewSection(c.Name, c.ResyncTimeout, hasOldPIDs, dial)
	for _, pc := range c.Peers {
		p := NewPeer(pc.Name, pc.Addr)
		p.Local = pc.Local
		s.AddPeer(p)
	}
	return s, nil
}
