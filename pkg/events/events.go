package events

import (
	"fmt"
	"slices"
	"sync"

	"github.com/mandelsoft/widgy/pkg/utils"
)

const (
	KIND_COMMIT  = "commit"
	KIND_REVERT  = "revert"
	KIND_APPROVE = "approve"
)

// Event describes a change of the version state of a tracker.
// The tracker id is used as namespace for handler registrations.
type Event struct {
	Kind    string `json:"kind"`
	Tracker string `json:"tracker"`
	Commit  string `json:"commit,omitempty"`
}

func (e Event) GetType() string {
	return e.Kind
}

func (e Event) GetNamespace() string {
	return e.Tracker
}

func (e Event) String() string {
	return fmt.Sprintf("%s/%s/%s", e.Kind, e.Tracker, e.Commit)
}

// EventLister provides the events describing the current state
// for handlers registered with current=true.
type EventLister interface {
	// ListEvents lists the current events. The function atomic must be called
	// while the state used for the list is guaranteed to be stable.
	ListEvents(kind string, ns string, atomic func()) ([]Event, error)
}

type EventHandler interface {
	HandleEvent(Event)
}

type HandlerRegistration interface {
	// RegisterHandler registers a handler for events of a kind (all kinds for "")
	// for a set of trackers (all trackers if none is given).
	// With current the handler is first called for the events
	// describing the current state.
	RegisterHandler(h EventHandler, current bool, kind string, nss ...string) utils.Sync
	UnregisterHandler(h EventHandler, kind string, nss ...string)
}

type HandlerRegistry interface {
	HandlerRegistration
	EventHandler

	TriggerEvent(Event)
}

type handlers []*wrapper
type namespaces map[string]handlers

type registry struct {
	lock   sync.Mutex
	kinds  map[string]namespaces
	lister EventLister
}

var _ HandlerRegistry = (*registry)(nil)

// NewHandlerRegistry creates a registry. The lister is optional,
// without it handlers registered with current don't get initial events.
func NewHandlerRegistry(l ...EventLister) HandlerRegistry {
	return &registry{
		kinds:  map[string]namespaces{},
		lister: utils.Optional(l...),
	}
}

func (r *registry) HandleEvent(e Event) {
	r.TriggerEvent(e)
}

func (r *registry) RegisterHandler(h EventHandler, current bool, kind string, nss ...string) utils.Sync {
	s, d := utils.NewSyncPoint()
	if current && r.lister != nil {
		go func() {
			r.registerHandler(h, true, kind, nss...)
			d.Done()
		}()
	} else {
		r.registerHandler(h, false, kind, nss...)
		d.Done()
	}
	return s
}

func index(list []*wrapper, h EventHandler) int {
	return slices.IndexFunc(list, func(w *wrapper) bool { return w.handler == h })
}

func (r *registry) registerHandler(h EventHandler, current bool, kind string, nss ...string) {
	if len(nss) == 0 {
		nss = []string{""}
	}

	for _, ns := range nss {
		r.lock.Lock()
		if index(r.kinds[kind][ns], h) >= 0 {
			r.lock.Unlock()
			continue
		}
		w := newWrapper(h)
		atomic := func() {
			r.lock.Lock()
			defer r.lock.Unlock()
			nsmap := r.kinds[kind]
			if nsmap == nil {
				nsmap = namespaces{}
				r.kinds[kind] = nsmap
			}
			if index(nsmap[ns], h) < 0 {
				nsmap[ns] = append(nsmap[ns], w)
			}
		}
		r.lock.Unlock()

		var list []Event
		if current {
			var err error
			list, err = r.lister.ListEvents(kind, ns, atomic)
			if err != nil {
				log.Error("cannot list current events for {{kind}}/{{namespace}}: {{error}}", "kind", kind, "namespace", ns, "error", err)
			}
		} else {
			atomic()
		}
		w.Rampup(list)
	}
}

func (r *registry) UnregisterHandler(h EventHandler, kind string, nss ...string) {
	if len(nss) == 0 {
		nss = []string{""}
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	nsmap := r.kinds[kind]
	if nsmap == nil {
		return
	}
	for _, ns := range nss {
		list := nsmap[ns]
		if i := index(list, h); i >= 0 {
			list = slices.Delete(slices.Clone(list), i, i+1)
		}
		if len(list) > 0 {
			nsmap[ns] = list
		} else {
			delete(nsmap, ns)
		}
	}
	if len(nsmap) == 0 {
		delete(r.kinds, kind)
	}
}

func (r *registry) getHandlers(e Event) []*wrapper {
	r.lock.Lock()
	defer r.lock.Unlock()

	var list []*wrapper
	for _, kind := range []string{"", e.Kind} {
		nsmap := r.kinds[kind]
		if len(nsmap) == 0 {
			continue
		}
		list = append(list, nsmap[e.Tracker]...)
		list = append(list, nsmap[""]...)
	}
	return list
}

func (r *registry) TriggerEvent(e Event) {
	log.Debug("event {{event}}", "event", e)
	for _, h := range r.getHandlers(e) {
		h.HandleEvent(e)
	}
}

// wrapper handles the rampup of a handler.
// It queues new events until the events for
// the current state are propagated.
type wrapper struct {
	lock    sync.Mutex
	rampup  bool
	queue   []Event
	handler EventHandler
}

var _ EventHandler = (*wrapper)(nil)

func newWrapper(h EventHandler) *wrapper {
	return &wrapper{
		handler: h,
		rampup:  true,
	}
}

func (w *wrapper) Rampup(events []Event) {
	w.lock.Lock()
	defer w.lock.Unlock()

	for _, e := range events {
		w.handler.HandleEvent(e)
	}
	for _, e := range w.queue {
		w.handler.HandleEvent(e)
	}
	w.rampup = false
	w.queue = nil
}

func (w *wrapper) HandleEvent(e Event) {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.rampup {
		w.queue = append(w.queue, e)
	} else {
		w.handler.HandleEvent(e)
	}
}
