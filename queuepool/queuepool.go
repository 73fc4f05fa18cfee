// Package queuepool holds an Actor's four disjoint queue maps — inbound,
// outbound, error, and reserved — and implements the graph-wiring protocol
// that lets one Actor's outbound Queue become another Actor's inbound Queue
// by object identity.
//
// Grounded on original_source/compysition/actor.py's connect_queue (the
// four-case resolution below follows it case for case) and director.py's
// default-naming rules.
package queuepool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/relaykit/relaykit/queue"
)

// ErrAlreadyConnected is returned by ConnectQueue when check_existing is
// true and either endpoint is already wired.
var ErrAlreadyConnected = errors.New("queuepool: already connected")

// Reserved outbound queue names present on every Actor.
const (
	ReservedLogs    = "logs"
	ReservedMetrics = "metrics"
	ReservedFailed  = "failed"
)

// ReservedInbox is the well-known inbound queue name every sink Actor
// listens on. Every producer's reserved logs/metrics/failed queue connects
// to this single name on the relevant sink, so every producer shares one
// Queue object (and one consume worker) on the sink instead of each getting
// its own.
const ReservedInbox = "inbox"

// DefaultCapacity is the bounded capacity a freshly created Queue gets when
// none is specified explicitly by the wiring caller.
const DefaultCapacity = 100

// Pool is the per-Actor container of inbound, outbound, error, and reserved
// queue maps. The zero value is not usable; construct with New.
type Pool struct {
	mu       sync.RWMutex
	capacity int

	inbound  map[string]*queue.Queue
	outbound map[string]*queue.Queue
	errorQ   map[string]*queue.Queue
	reserved map[string]*queue.Queue
}

// New constructs a Pool whose freshly created queues default to capacity
// (0 = unbounded), pre-populated with the three reserved outbound queues.
func New(capacity int) *Pool {
	p := &Pool{
		capacity: capacity,
		inbound:  make(map[string]*queue.Queue),
		outbound: make(map[string]*queue.Queue),
		errorQ:   make(map[string]*queue.Queue),
		reserved: make(map[string]*queue.Queue),
	}
	for _, name := range []string{ReservedLogs, ReservedMetrics, ReservedFailed} {
		p.reserved[name] = queue.New(name, capacity)
	}
	return p
}

// AddInbound installs q (or a freshly created queue, if q is nil) as the
// inbound queue named name.
func (p *Pool) AddInbound(name string, q *queue.Queue) *queue.Queue {
	return p.add(p.inbound, name, q)
}

// AddOutbound installs q (or a freshly created queue, if q is nil) as the
// outbound queue named name.
func (p *Pool) AddOutbound(name string, q *queue.Queue) *queue.Queue {
	return p.add(p.outbound, name, q)
}

// AddError installs q (or a freshly created queue, if q is nil) as the
// error queue named name.
func (p *Pool) AddError(name string, q *queue.Queue) *queue.Queue {
	return p.add(p.errorQ, name, q)
}

// AddReserved installs q (or a freshly created queue, if q is nil) as the
// reserved queue named name, overwriting the default no-op reserved queue.
func (p *Pool) AddReserved(name string, q *queue.Queue) *queue.Queue {
	return p.add(p.reserved, name, q)
}

func (p *Pool) add(scope map[string]*queue.Queue, name string, q *queue.Queue) *queue.Queue {
	p.mu.Lock()
	defer p.mu.Unlock()
	if q == nil {
		q = queue.New(name, p.capacity)
	}
	scope[name] = q
	return q
}

// Inbound returns the inbound queue named name, or nil if absent.
func (p *Pool) Inbound(name string) *queue.Queue { return p.get(p.inbound, name) }

// Outbound returns the outbound queue named name, or nil if absent.
func (p *Pool) Outbound(name string) *queue.Queue { return p.get(p.outbound, name) }

// Error returns the error queue named name, or nil if absent.
func (p *Pool) Error(name string) *queue.Queue { return p.get(p.errorQ, name) }

// Reserved returns the reserved queue named name, or nil if absent.
func (p *Pool) Reserved(name string) *queue.Queue { return p.get(p.reserved, name) }

func (p *Pool) get(scope map[string]*queue.Queue, name string) *queue.Queue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return scope[name]
}

// Inbounds returns a snapshot slice of all inbound queues.
func (p *Pool) Inbounds() []*queue.Queue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*queue.Queue, 0, len(p.inbound))
	for _, q := range p.inbound {
		out = append(out, q)
	}
	return out
}

// Outbounds returns a snapshot slice of all plain outbound queues (NOT
// including reserved), used by SendEvent's default fan-out target list and
// by the metric emitter.
func (p *Pool) Outbounds() []*queue.Queue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*queue.Queue, 0, len(p.outbound))
	for _, q := range p.outbound {
		out = append(out, q)
	}
	return out
}

// Errors returns a snapshot slice of all error queues.
func (p *Pool) Errors() []*queue.Queue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*queue.Queue, 0, len(p.errorQ))
	for _, q := range p.errorQ {
		out = append(out, q)
	}
	return out
}

// Move replaces src with dst under the same name in scope, draining any
// content already pending on src into dst first so no in-flight Event is
// lost.
func (p *Pool) Move(src, dst *queue.Queue, scope map[string]*queue.Queue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for src.Size() > 0 {
		e, err := src.Get(0)
		if err != nil {
			break
		}
		_ = dst.Put(e)
	}
	for name, q := range scope {
		if q == src {
			scope[name] = dst
		}
	}
}

// Consumer is the minimal surface ConnectQueue needs of a destination
// Actor: a lookup of its inbound pool and a hook to register a new inbound
// queue (which, on the real Actor, also spawns a consume worker bound to
// it — see actor.RegisterConsumer).
type Consumer interface {
	Pool() *Pool
	RegisterConsumer(name string, q *queue.Queue) error
}

// ConnectQueue wires srcName on this Pool to dstName on dst's inbound pool,
// realizing the edge as queue-object identity. scope selects whether the
// source endpoint is a plain outbound queue or an error queue.
//
// Resolution follows the four cases of actor.py's connect_queue: neither
// side exists (create fresh, install both sides),
// both exist (move src to replace dst, so both Actors end up referencing
// dst's Queue), only src exists (install it as dst's inbound), only dst
// exists (install it as this Pool's outbound/error).
func (p *Pool) ConnectQueue(srcName string, errorQueue bool, dst Consumer, dstName string, checkExisting bool) error {
	var src *queue.Queue
	var srcScope map[string]*queue.Queue
	switch {
	case p.reserved[srcName] != nil:
		src, srcScope = p.reserved[srcName], p.reserved
	case errorQueue:
		src, srcScope = p.errorQ[srcName], p.errorQ
	default:
		src, srcScope = p.outbound[srcName], p.outbound
	}

	dstPool := dst.Pool()
	dstQueue := dstPool.Inbound(dstName)

	if checkExisting {
		if src != nil {
			return fmt.Errorf("%w: %s", ErrAlreadyConnected, srcName)
		}
		if dstQueue != nil {
			return fmt.Errorf("%w: %s", ErrAlreadyConnected, dstName)
		}
	}

	switch {
	case src == nil && dstQueue == nil:
		fresh := queue.New(srcName, p.capacity)
		if errorQueue {
			p.AddError(srcName, fresh)
		} else {
			p.AddOutbound(srcName, fresh)
		}
		return dst.RegisterConsumer(dstName, fresh)

	case src != nil && dstQueue != nil:
		p.Move(src, dstQueue, srcScope)
		return nil

	case src == nil && dstQueue != nil:
		if errorQueue {
			p.AddError(srcName, dstQueue)
		} else {
			p.AddOutbound(srcName, dstQueue)
		}
		return nil

	default: // src != nil, dstQueue == nil
		return dst.RegisterConsumer(dstName, src)
	}
}
