/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package forwarder

import (
	"sort"
	"sync"
	"time"

	"github.com/boss-server-ops/Minindn/utils/priority_queue"
)

// PendingRequest is a range request waiting for a recommendation.
type PendingRequest struct {
	ClientID string
	// Name of the range request, used to answer it.
	RequestName           string
	Title                 string
	Chunk                 uint64
	AcceptableResolutions []string
	// Client's own submission timestamp.
	Timestamp   float64
	SubmittedAt time.Time
	// After Deadline the range request can no longer be answered.
	Deadline time.Time
}

// PendingTable holds at most one pending request per client.
type PendingTable struct {
	mutex   sync.Mutex
	entries map[string]*PendingRequest
	expiry  *priority_queue.Queue[string, int64]
}

func NewPendingTable() *PendingTable {
	return &PendingTable{
		entries: make(map[string]*PendingRequest),
		expiry:  priority_queue.New[string, int64](),
	}
}

// Put stores pr, replacing the client's earlier request. It reports whether
// an earlier request was replaced.
func (t *PendingTable) Put(pr *PendingRequest) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	_, replaced := t.entries[pr.ClientID]
	t.entries[pr.ClientID] = pr
	if pr.Deadline.IsZero() {
		t.expiry.Remove(pr.ClientID)
	} else {
		t.expiry.Set(pr.ClientID, pr.Deadline.UnixNano())
	}
	return replaced
}

// Take removes and returns the client's pending request.
func (t *PendingTable) Take(clientID string) (*PendingRequest, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	pr, ok := t.entries[clientID]
	if ok {
		delete(t.entries, clientID)
		t.expiry.Remove(clientID)
	}
	return pr, ok
}

// Get returns the client's pending request without removing it.
func (t *PendingTable) Get(clientID string) (*PendingRequest, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	pr, ok := t.entries[clientID]
	return pr, ok
}

func (t *PendingTable) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.entries)
}

// ClientIDs returns the ids of all pending clients, sorted.
func (t *PendingTable) ClientIDs() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Expire removes and returns every request whose deadline is not after now.
func (t *PendingTable) Expire(now time.Time) []*PendingRequest {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	var expired []*PendingRequest
	for _, id := range t.expiry.PopUntil(now.UnixNano()) {
		expired = append(expired, t.entries[id])
		delete(t.entries, id)
	}
	return expired
}
