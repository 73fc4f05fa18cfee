package director

import "github.com/relaykit/relaykit/actor"

// endpoint names one side of a ConnectQueue/ConnectErrorQueue call: an Actor,
// plus an optional explicit queue name. Go-idiomatic re-expression of
// director.py's _parse_connect_arg, which accepts either a bare actor or an
// (actor, queue-name) pair.
type endpoint struct {
	actor *actor.Actor
	queue string // "" means "infer from the other endpoint's actor name"
}

// Endpoint names an Actor whose queue name should be inferred from the
// actor on the other side of the connection.
func Endpoint(a *actor.Actor) endpoint { return endpoint{actor: a} }

// EndpointNamed names an Actor and an explicit queue name on it.
func EndpointNamed(a *actor.Actor, queue string) endpoint {
	return endpoint{actor: a, queue: queue}
}
