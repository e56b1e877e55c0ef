/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package transport carries named request/response exchanges between the roles.
package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/boss-server-ops/Minindn/protocol"
)

var (
	// ErrTimeout is returned when no response arrived within the request lifetime.
	ErrTimeout = errors.New("request timed out")
	// ErrNack is returned when the network refused the request.
	ErrNack = errors.New("request nacked by network")
	// ErrNoRoute is returned when no producer serves the requested name.
	ErrNoRoute = errors.New("no route to name")
	// ErrNotPending is returned when responding to a name nobody is waiting for.
	ErrNotPending = errors.New("no pending request for name")
	// ErrClosed is returned by a closed transport.
	ErrClosed = errors.New("transport closed")
	// ErrDuplicateHandler is returned when a prefix already has a handler.
	ErrDuplicateHandler = errors.New("prefix already has a handler")
)

// Request is an incoming request delivered to a Handler.
type Request struct {
	// Name is the full request name, including the parameters digest when
	// Params is set. Responses must be addressed to this name.
	Name string
	// Params is the request's application parameters, possibly nil.
	Params []byte
	// Deadline is when the requester stops waiting.
	Deadline time.Time
}

// Handler serves requests under an attached prefix. Handlers are invoked on
// their own goroutine and may block.
type Handler func(req Request)

// Transport is the named request/response service used by every role.
type Transport interface {
	// Express sends a request and waits for its response, a failure, the
	// lifetime or ctx, whichever comes first.
	Express(ctx context.Context, name string, params []byte, lifetime time.Duration) ([]byte, error)
	// Respond answers the pending request with exactly this name.
	Respond(name string, content []byte, freshness time.Duration) error
	// Attach installs h for all names under prefix and announces the prefix.
	Attach(prefix string, h Handler) error
	// Detach removes the handler of prefix.
	Detach(prefix string) error
	// Close detaches all handlers and fails outstanding requests.
	Close() error
}

// FullName appends the parameters digest component to name when params is non-nil.
func FullName(name string, params []byte) string {
	if params == nil {
		return name
	}
	sum := sha256.Sum256(params)
	return name + "/" + protocol.ParamsDigestPrefix + hex.EncodeToString(sum[:])
}
