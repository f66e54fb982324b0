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
	"net"
	"sync/atomic"

	"github.com/gobalance/gobalance/chn"
)

// pumpChannel drives one direction of a stream: it reads from src into ch's
// Buffer, authorises the bytes read to forward (the tunnel-mode byte
// budget), then drains the buffer out to dst, accounting every byte sent
// into counter. It returns once src.Read or dst.Write returns an error,
// including io.EOF.
func pumpChannel(src net.Conn, dst net.Conn, ch *chn.Channel, counter *int64) error {
	buf := ch.Buf
	for {
		buf.Realign()
		slice := buf.WriteSlice()
		if len(slice) == 0 {
			// The ring is full because the consumer side has fallen behind;
			// drain what we can before asking for more.
			if _, err := buf.WriteTo(dst); err != nil {
				return err
			}
			continue
		}

		n, rerr := src.Read(slice)
		if n > 0 {
			buf.Commit(n)
			ch.Forward(int64(n))
			ch.Total += int64(n)

			for !buf.IsEmpty() {
				wn, werr := buf.WriteTo(dst)
				if counter != nil && wn > 0 {
					atomic.AddInt64(counter, wn)
				}
				if werr != nil {
					return werr
				}
			}
		}
		if rerr != nil {
			return rerr
		}
	}
}
