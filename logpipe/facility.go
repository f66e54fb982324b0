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

import "github.com/pkg/errors"

// Facility is the syslog facility code (RFC 5424 §6.2.1).
type Facility uint8

const (
	FacilityKern Facility = iota
	FacilityUser
	FacilityMail
	FacilityDaemon
	FacilityAuth
	FacilitySyslog
	FacilityLpr
	FacilityNews
	FacilityUucp
	FacilityCron
	FacilityAuthPriv
	FacilityFTP
	_
	_
	_
	_
	FacilityLocal0
	FacilityLocal1
	FacilityLocal2
	FacilityLocal3
	FacilityLocal4
	FacilityLocal5
	FacilityLocal6
	FacilityLocal7
)

var facilityNames = map[string]Facility{
	"kern": FacilityKern, "user": FacilityUser, "mail": FacilityMail,
	"daemon": FacilityDaemon, "auth": FacilityAuth, "syslog": FacilitySyslog,
	"lpr": FacilityLpr, "news": FacilityNews, "uucp": FacilityUucp,
	"cron": FacilityCron, "authpriv": FacilityAuthPriv, "ftp": FacilityFTP,
	"local0": FacilityLocal0, "local1": FacilityLocal1, "local2": FacilityLocal2,
	"local3": FacilityLocal3, "local4": FacilityLocal4, "local5": FacilityLocal5,
	"local6": FacilityLocal6, "local7": FacilityLocal7,
}

// ParseFacility maps a standard syslog facility name to its code.
func ParseFacility(s string) (Facility, error) {
	f, ok := facilityNames[s]
	if !ok {
		return 0, errors.Errorf("logpipe: unknown facility %q", s)
	}
	return f, nil
}

// Severity is the syslog severity level (RFC 5424 §6.2.1).
type Severity uint8

const (
	SeverityEmerg Severity = iota
	SeverityAlert
	SeverityCrit
	SeverityErr
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

var severityNames = map[string]Severity{
	"emerg": SeverityEmerg, "alert": SeverityAlert, "crit": SeverityCrit,
	"err": SeverityErr, "warning": SeverityWarning, "notice": SeverityNotice,
	"info": SeverityInfo, "debug": SeverityDebug,
}

// ParseSeverity maps a standard syslog severity name to its code.
func ParseSeverity(s string) (Severity, error) {
	v, ok := severityNames[s]
	if !ok {
		return 0, errors.Errorf("logpipe: unknown severity %q", s)
	}
	return v, nil
}

// Priority computes the PRIVAL placed between the angle brackets at the
// start of a syslog line: facility*8 + severity.
func Priority(f Facility, s Severity) int {
	return int(f)<<3 | int(s)
}
