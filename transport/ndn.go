/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	enc "github.com/zjkmxy/go-ndn/pkg/encoding"
	"github.com/zjkmxy/go-ndn/pkg/engine"
	"github.com/zjkmxy/go-ndn/pkg/ndn"
	sec "github.com/zjkmxy/go-ndn/pkg/security"
	"github.com/zjkmxy/go-ndn/pkg/utils"
)

type pendingReply struct {
	name     enc.Name
	reply    func(enc.Wire) error
	deadline time.Time
}

// NDN is a Transport over a go-ndn engine connected to a local forwarder.
type NDN struct {
	engine ndn.Engine
	signer ndn.Signer

	// register attached prefixes with the forwarder
	announce bool

	mutex    sync.Mutex
	pending  map[string]pendingReply
	prefixes map[string]enc.Name
	closed   bool
}

// DialNDN connects to the forwarder's unix socket and starts the engine.
// With announce set, attached prefixes are registered as routes.
func DialNDN(socket string, announce bool) (*NDN, error) {
	eng := engine.NewBasicEngine(engine.NewUnixFace(socket))
	if err := eng.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ndn engine on %s: %w", socket, err)
	}
	return NewNDN(eng, announce), nil
}

// NewNDN wraps an already started engine.
func NewNDN(eng ndn.Engine, announce bool) *NDN {
	return &NDN{
		engine:   eng,
		announce: announce,
		signer:   sec.NewSha256Signer(),
		pending:  make(map[string]pendingReply),
		prefixes: make(map[string]enc.Name),
	}
}

func (t *NDN) String() string {
	return "NDN"
}

func (t *NDN) Express(ctx context.Context, name string, params []byte, lifetime time.Duration) ([]byte, error) {
	n, err := enc.NameFromStr(name)
	if err != nil {
		return nil, fmt.Errorf("invalid name %s: %w", name, err)
	}

	var appParam enc.Wire
	if params != nil {
		appParam = enc.Wire{params}
	}
	interest, err := t.engine.Spec().MakeInterest(n, &ndn.InterestConfig{
		MustBeFresh: true,
		Lifetime:    utils.IdPtr(lifetime),
	}, appParam, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode interest %s: %w", name, err)
	}

	done := make(chan response, 1)
	err = t.engine.Express(interest, func(args ndn.ExpressCallbackArgs) {
		switch args.Result {
		case ndn.InterestResultData:
			done <- response{content: args.Data.Content().Join()}
		case ndn.InterestResultNack:
			done <- response{err: fmt.Errorf("%w: %s reason %d", ErrNack, name, args.NackReason)}
		case ndn.InterestResultTimeout:
			done <- response{err: fmt.Errorf("%w: %s", ErrTimeout, name)}
		default:
			done <- response{err: fmt.Errorf("interest %s failed: result %d", name, args.Result)}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to express %s: %w", name, err)
	}

	select {
	case r := <-done:
		return r.content, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *NDN) Respond(name string, content []byte, freshness time.Duration) error {
	t.mutex.Lock()
	p, ok := t.pending[name]
	delete(t.pending, name)
	t.mutex.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPending, name)
	}

	data, err := t.engine.Spec().MakeData(p.name, &ndn.DataConfig{
		ContentType: utils.IdPtr(ndn.ContentTypeBlob),
		Freshness:   utils.IdPtr(freshness),
	}, enc.Wire{content}, t.signer)
	if err != nil {
		return fmt.Errorf("failed to encode data %s: %w", name, err)
	}
	if err := p.reply(data.Wire); err != nil {
		if errors.Is(err, ndn.ErrDeadlineExceed) {
			return fmt.Errorf("%w: %s expired", ErrNotPending, name)
		}
		return err
	}
	return nil
}

func (t *NDN) Attach(prefix string, h Handler) error {
	n, err := enc.NameFromStr(prefix)
	if err != nil {
		return fmt.Errorf("invalid prefix %s: %w", prefix, err)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return ErrClosed
	}
	if _, ok := t.prefixes[prefix]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, prefix)
	}

	err = t.engine.AttachHandler(n, func(args ndn.InterestHandlerArgs) {
		full := args.Interest.Name().String()
		var params []byte
		if ap := args.Interest.AppParam(); ap != nil {
			params = ap.Join()
		}

		t.mutex.Lock()
		t.pending[full] = pendingReply{name: args.Interest.Name(), reply: args.Reply, deadline: args.Deadline}
		t.mutex.Unlock()

		time.AfterFunc(time.Until(args.Deadline), func() { t.expire(full) })
		go h(Request{Name: full, Params: params, Deadline: args.Deadline})
	})
	if err != nil {
		return fmt.Errorf("failed to attach %s: %w", prefix, err)
	}

	if t.announce {
		if err := t.engine.RegisterRoute(n); err != nil {
			core.LogWarn(t, "Unable to register route ", prefix, ": ", err)
		} else {
			core.LogInfo(t, "Announced prefix ", prefix)
		}
	}
	t.prefixes[prefix] = n
	return nil
}

// expire drops the reply slot of name once its deadline passed unanswered.
func (t *NDN) expire(name string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if p, ok := t.pending[name]; ok && !time.Now().Before(p.deadline) {
		delete(t.pending, name)
	}
}

func (t *NDN) Detach(prefix string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	n, ok := t.prefixes[prefix]
	if !ok {
		return nil
	}
	delete(t.prefixes, prefix)
	if t.announce {
		if err := t.engine.UnregisterRoute(n); err != nil {
			core.LogWarn(t, "Unable to unregister route ", prefix, ": ", err)
		}
	}
	return t.engine.DetachHandler(n)
}

// Close detaches all prefixes and stops the engine.
func (t *NDN) Close() error {
	t.mutex.Lock()
	if t.closed {
		t.mutex.Unlock()
		return nil
	}
	t.closed = true
	prefixes := make([]string, 0, len(t.prefixes))
	for p := range t.prefixes {
		prefixes = append(prefixes, p)
	}
	t.mutex.Unlock()

	for _, p := range prefixes {
		if err := t.Detach(p); err != nil {
			core.LogWarn(t, "Unable to detach ", p, ": ", err)
		}
	}
	return t.engine.Stop()
}
