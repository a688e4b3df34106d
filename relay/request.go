package relay

import (
	"errors"
	"fmt"

	"github.com/nathoo/spellbound/engine/interp"
	"github.com/nathoo/spellbound/engine/resolve"
	"github.com/nathoo/spellbound/types"
)

// Kind names what a client asked for.
type Kind string

const (
	KindFire    Kind = "fire"
	KindTrigger Kind = "trigger"
	KindClose   Kind = "close"
)

// Request is a queued client message.
type Request struct {
	Client   string
	Kind     Kind
	Scenario string      // KindFire
	Event    types.Event // KindTrigger
}

// Target is what requests act on; *engine.Engine satisfies it.
type Target interface {
	Start(name string, env resolve.Env) error
	Trigger(ev types.Event) types.Result
	Close() types.Result
}

// Apply performs the request against t.
func (r Request) Apply(t Target) types.Result {
	switch r.Kind {
	case KindFire:
		var result types.Result
		err := t.Start(r.Scenario, nil)
		switch {
		case err == nil:
			result.Output = append(result.Output, fmt.Sprintf("%s: playing %s.", r.Client, r.Scenario))
		case errors.Is(err, interp.ErrBusy):
			result.Output = append(result.Output, fmt.Sprintf("%s: busy, %s not started.", r.Client, r.Scenario))
		default:
			result.Output = append(result.Output, fmt.Sprintf("%s: %v.", r.Client, err))
		}
		return result
	case KindTrigger:
		return t.Trigger(r.Event)
	case KindClose:
		return t.Close()
	}
	return types.Result{}
}

// Drain applies every queued request without blocking and returns the
// combined result. The tick loop calls it between ticks.
func (h *Hub) Drain(t Target) types.Result {
	var result types.Result
	for {
		select {
		case req := <-h.requests:
			r := req.Apply(t)
			result.Effects = append(result.Effects, r.Effects...)
			result.Events = append(result.Events, r.Events...)
			result.Output = append(result.Output, r.Output...)
		default:
			return result
		}
	}
}
