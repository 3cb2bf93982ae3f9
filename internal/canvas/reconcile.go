package canvas

import (
	"log"
	"sync"
	"time"

	"whiteboard/internal/domain"
)

// Policy holds the tunable knobs of the reconciler. The regression window
// and threshold are empirically tuned heuristics, not derived constants, so
// they are configuration rather than code.
type Policy struct {
	// RegressionWindow is how recently the last accepted mutation must have
	// happened for a shrinking snapshot to be trusted.
	RegressionWindow time.Duration
	// RegressionThreshold is the largest element-count drop accepted inside
	// the window without agent-batch provenance.
	RegressionThreshold int
	// Debounce coalesces outbound pushes; a push superseded before its
	// timer fires is dropped entirely.
	Debounce time.Duration
	// PushSettle is how long after a push completes that surface-originated
	// snapshots are still treated as echoes of it.
	PushSettle time.Duration
}

// DefaultPolicy returns the production tuning.
func DefaultPolicy() Policy {
	return Policy{
		RegressionWindow:    2 * time.Second,
		RegressionThreshold: 5,
		Debounce:            40 * time.Millisecond,
		PushSettle:          30 * time.Millisecond,
	}
}

// Reject reasons recorded on dropped or refused snapshots.
const (
	ReasonUnchanged  = "unchanged"
	ReasonEcho       = "echo"
	ReasonMountGrace = "mount-grace"
	ReasonRegression = "regression"
)

// Decision is the outcome of offering a snapshot to the reconciler.
type Decision struct {
	Accepted bool
	Reason   string // set when not accepted
	// Collection is the canonical collection after the decision: the new
	// snapshot (possibly adjusted by the geometry pass) when accepted, the
	// retained prior truth otherwise.
	Collection Collection
}

// PushFunc delivers a snapshot to the drawing surface. It must be
// idempotent on the receiving side; redundant pushes are expected no-ops.
type PushFunc func(Collection)

// RejectFunc observes rejected snapshots for diagnostics. Rejections are
// protective heuristics, never user-facing errors.
type RejectFunc func(reason string, incoming, kept int)

// Reconciler arbitrates between the drawing surface's snapshot stream and
// host-side mutations over one canonical element collection. The surface is
// an untrusted, possibly-stale writer: its re-render emissions can echo
// state the reconciler itself just pushed, or regress to old snapshots.
//
// All entry points are serialized behind one mutex; inbound snapshots are
// decided strictly in lock order, each atomically against the currently
// accepted collection. Outbound pushes are debounced and coalesced
// (last-write-wins). No failure propagates past this boundary: an
// ambiguous inbound snapshot resolves to "keep prior truth".
type Reconciler struct {
	mu     sync.Mutex
	policy Policy
	engine *BindingEngine

	current        Collection
	lastPushedFP   string
	lastAcceptedFP string

	// pushing marks an outbound push in flight; surface snapshots arriving
	// while set are echoes of that push. Cleared on a settle timer after
	// the push completes.
	pushing bool

	// surfacePrimed flips once a non-empty snapshot has been pushed to the
	// surface; before that, exactly one empty surface snapshot is swallowed
	// as the mount-time handshake.
	surfacePrimed   bool
	mountGraceSpent bool

	lastMutation   time.Time
	lastAgentBatch bool

	pushTimer *time.Timer
	pushFn    PushFunc
	onReject  RejectFunc

	now func() time.Time
}

// NewReconciler creates a reconciler that delivers outbound snapshots via
// push. A nil onReject falls back to logging.
func NewReconciler(policy Policy, push PushFunc, onReject RejectFunc) *Reconciler {
	if onReject == nil {
		onReject = func(reason string, incoming, kept int) {
			log.Printf("reconciler: rejected surface snapshot (%s): incoming=%d kept=%d", reason, incoming, kept)
		}
	}
	return &Reconciler{
		policy:   policy,
		engine:   NewBindingEngine(),
		current:  NewCollection(nil),
		pushFn:   push,
		onReject: onReject,
		now:      time.Now,
	}
}

// Current returns the canonical collection.
func (r *Reconciler) Current() Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Seed installs an initial collection (a sketch loaded from the store) and
// schedules the first push to the surface. Seeding is not a mutation for
// regression purposes.
func (r *Reconciler) Seed(c Collection) {
	r.mu.Lock()
	r.current = c
	r.lastAcceptedFP = c.Fingerprint()
	r.lastMutation = r.now()
	r.lastAgentBatch = false
	r.schedulePushLocked()
	r.mu.Unlock()
}

// Reset clears all tracked state, including the mount grace. Called when
// the active sketch changes.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	if r.pushTimer != nil {
		r.pushTimer.Stop()
		r.pushTimer = nil
	}
	r.current = NewCollection(nil)
	r.lastPushedFP = ""
	r.lastAcceptedFP = ""
	r.pushing = false
	r.surfacePrimed = false
	r.mountGraceSpent = false
	r.lastAgentBatch = false
	r.mu.Unlock()
}

// OfferSurface evaluates one surface-originated snapshot against the
// canonical collection. Elements are normalized rather than dropped; the
// whole decision is atomic. Accepted snapshots that touch connectors go
// through the binding geometry pass, and a pass that changes anything is
// pushed back out to the surface.
func (r *Reconciler) OfferSurface(elements []domain.Element) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	incoming := NewCollection(elements)
	fp := incoming.Fingerprint()

	// No-op snapshots: identical to what we last pushed or last accepted.
	if fp == r.lastPushedFP || fp == r.lastAcceptedFP {
		return Decision{Accepted: false, Reason: ReasonUnchanged, Collection: r.current}
	}

	// Echo of an in-flight push.
	if r.pushing {
		return Decision{Accepted: false, Reason: ReasonEcho, Collection: r.current}
	}

	// The surface emits one empty snapshot during its init handshake.
	// Once anything non-empty has been pushed, empty means a real clear.
	if incoming.Len() == 0 && !r.surfacePrimed {
		if !r.mountGraceSpent {
			r.mountGraceSpent = true
			return Decision{Accepted: false, Reason: ReasonMountGrace, Collection: r.current}
		}
	}

	if !r.admitLocked(incoming.Len()) {
		r.onReject(ReasonRegression, incoming.Len(), r.current.Len())
		return Decision{Accepted: false, Reason: ReasonRegression, Collection: r.current}
	}

	r.current = incoming
	r.lastAcceptedFP = fp
	r.lastMutation = r.now()
	r.lastAgentBatch = false

	// Geometry pass; if it adjusted anything, the surface needs to hear
	// about it.
	bound := r.engine.BindAll(incoming)
	if bound.Fingerprint() != fp {
		r.current = bound
		r.lastAcceptedFP = bound.Fingerprint()
		r.schedulePushLocked()
	}
	return Decision{Accepted: true, Collection: r.current}
}

// admitLocked applies the regression policy: growth and explicit clears
// always pass; a shrink passes only when recent and either small or
// following an agent-issued batch. A sudden unexplained large drop is far
// more likely a synchronization artifact than user intent.
func (r *Reconciler) admitLocked(next int) bool {
	prev := r.current.Len()
	if next >= prev || next == 0 {
		return true
	}
	if r.now().Sub(r.lastMutation) > r.policy.RegressionWindow {
		return false
	}
	return prev-next < r.policy.RegressionThreshold || r.lastAgentBatch
}

// ApplyHost installs a host-originated collection (agent command results,
// file-sync reloads, undo restores). Host writes are trusted: they always
// replace the canonical collection, go through the geometry pass, and are
// pushed to the surface. agentBatch marks multi-step agent sequences for
// the regression policy.
func (r *Reconciler) ApplyHost(elements []domain.Element, agentBatch bool) Collection {
	r.mu.Lock()
	defer r.mu.Unlock()

	incoming := r.engine.BindAll(NewCollection(elements))
	r.current = incoming
	r.lastAcceptedFP = incoming.Fingerprint()
	r.lastMutation = r.now()
	r.lastAgentBatch = agentBatch
	r.schedulePushLocked()
	return r.current
}

// schedulePushLocked (re)arms the debounce timer. An armed push superseded
// by a newer one is dropped entirely.
func (r *Reconciler) schedulePushLocked() {
	if r.pushTimer != nil {
		r.pushTimer.Stop()
	}
	r.pushTimer = time.AfterFunc(r.policy.Debounce, r.firePush)
}

func (r *Reconciler) firePush() {
	r.mu.Lock()
	snapshot := r.current
	r.lastPushedFP = snapshot.Fingerprint()
	r.pushing = true
	if snapshot.Len() > 0 {
		r.surfacePrimed = true
	}
	push := r.pushFn
	r.mu.Unlock()

	if push != nil {
		push(snapshot)
	}

	// The surface re-renders (and re-emits) shortly after receiving a
	// push; keep treating its snapshots as echoes until things settle.
	time.AfterFunc(r.policy.PushSettle, func() {
		r.mu.Lock()
		r.pushing = false
		r.mu.Unlock()
	})
}

// Flush forces any pending debounced push to fire immediately. Used on
// shutdown so the surface isn't left behind the store.
func (r *Reconciler) Flush() {
	r.mu.Lock()
	timer := r.pushTimer
	r.pushTimer = nil
	r.mu.Unlock()
	if timer != nil && timer.Stop() {
		r.firePush()
	}
}
