/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package forwarder

import (
	"encoding/binary"
	"sort"
	"strconv"
	"sync"

	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/cespare/xxhash"
)

// DemandTable tracks client demand not yet acknowledged by the optimizer
// and suppresses reports identical to the last one sent.
type DemandTable struct {
	mutex    sync.Mutex
	entries  map[string]protocol.ClientRequest
	reported uint64
}

func NewDemandTable() *DemandTable {
	return &DemandTable{entries: make(map[string]protocol.ClientRequest)}
}

// Add records or replaces the client's demand.
func (d *DemandTable) Add(cr protocol.ClientRequest) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.entries[cr.ClientID] = cr
}

// Remove drops the client's demand.
func (d *DemandTable) Remove(clientID string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.entries, clientID)
}

func (d *DemandTable) Len() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.entries)
}

// Pending returns the demand to report, ordered by client id, and its digest.
// ok is false when there is nothing to report or the demand equals what was
// last acknowledged.
func (d *DemandTable) Pending() (requests []protocol.ClientRequest, digest uint64, ok bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if len(d.entries) == 0 {
		return nil, 0, false
	}

	requests = make([]protocol.ClientRequest, 0, len(d.entries))
	for _, cr := range d.entries {
		requests = append(requests, cr)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].ClientID < requests[j].ClientID
	})

	digest = digestRequests(requests)
	if digest == d.reported {
		return nil, digest, false
	}
	return requests, digest, true
}

// Acknowledge marks the demand with digest as reported and clears the
// entries it covered. Entries changed since Pending are kept.
func (d *DemandTable) Acknowledge(requests []protocol.ClientRequest, digest uint64) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.reported = digest
	for _, cr := range requests {
		if cur, ok := d.entries[cr.ClientID]; ok && sameRequest(cur, cr) {
			delete(d.entries, cr.ClientID)
		}
	}
}

func sameRequest(a, b protocol.ClientRequest) bool {
	if a.ClientID != b.ClientID || a.TitleID != b.TitleID || a.Chunk != b.Chunk ||
		a.Timestamp != b.Timestamp || len(a.AcceptableResolutions) != len(b.AcceptableResolutions) {
		return false
	}
	for i := range a.AcceptableResolutions {
		if a.AcceptableResolutions[i] != b.AcceptableResolutions[i] {
			return false
		}
	}
	return true
}

func digestRequests(requests []protocol.ClientRequest) uint64 {
	h := xxhash.New()
	var num [8]byte
	writeString := func(s string) {
		binary.BigEndian.PutUint64(num[:], uint64(len(s)))
		h.Write(num[:])
		h.Write([]byte(s))
	}
	for _, cr := range requests {
		writeString(cr.ClientID)
		writeString(cr.TitleID)
		binary.BigEndian.PutUint64(num[:], cr.Chunk)
		h.Write(num[:])
		binary.BigEndian.PutUint64(num[:], uint64(len(cr.AcceptableResolutions)))
		h.Write(num[:])
		for _, r := range cr.AcceptableResolutions {
			writeString(r)
		}
		writeString(strconv.FormatFloat(cr.Timestamp, 'g', -1, 64))
	}
	return h.Sum64()
}
