package scene

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/scenery/internal/core/entity"
	"github.com/zeusync/scenery/internal/core/events/bus"
	"github.com/zeusync/scenery/internal/core/observability/log"
	"github.com/zeusync/scenery/internal/core/rtti"
	"github.com/zeusync/scenery/pkg/concurrent"
	"github.com/zeusync/scenery/pkg/generic"
	"github.com/zeusync/scenery/pkg/sequence"
)

// bucket is one component type's slice of an object's table, captured when the
// object was activated.
type bucket struct {
	typ        *rtti.Type
	components []entity.Component
}

type record struct {
	object   *entity.GameObject
	state    State
	removing bool
	// snapshot holds the components merged into the scene at activation; they
	// are the ones taken out again at deactivation.
	snapshot []bucket
}

// queuedHook is an Awake or Sleep pass requested from a parallel main pass. It
// runs on the Update goroutine once every worker has returned.
type queuedHook struct {
	object *entity.GameObject
	event  bus.Type
}

var removalSets = generic.NewPool(
	func() map[entity.Component]struct{} { return make(map[entity.Component]struct{}) },
	func(m map[entity.Component]struct{}) { clear(m) },
)

// Scene owns a set of game objects and drives their per-frame update.
//
// Structural changes are deferred: Add and Remove only fill the activation and
// deactivation buffers, which Update flushes in its prepare and finish phases.
// Objects added during a tick are first updated on the next one, and objects
// removed during a tick still receive that tick's Update.
//
// Components removed from their object or belonging to a destroyed object
// receive no further hooks and leave the aggregate lists after the main pass.
//
// Scene is not safe for concurrent use, except that Add, Remove and the
// read-only lookups may be called from component hooks running in a parallel
// main pass. There Add and Remove only queue the objects; their Awake and Sleep
// hooks run after the pass, before the finish phase.
type Scene struct {
	name string
	cfg  Config
	log  log.Log

	mu         sync.Mutex
	records    map[uuid.UUID]*record
	live       []*entity.GameObject
	activate   []*record
	deactivate []*record
	deferred   bool
	hooks      []queuedHook

	components *sequence.OrderedMap[rtti.TypeID, []entity.Component]

	updating bool
	frame    uint64
	lastTick time.Duration
}

// New creates an empty scene.
func New(name string, opts ...Option) *Scene {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scene{
		name:       name,
		cfg:        cfg,
		log:        cfg.Logger.With(log.String("scene", name)),
		records:    make(map[uuid.UUID]*record),
		components: sequence.NewOrderedMap[rtti.TypeID, []entity.Component](),
	}
}

func (s *Scene) Name() string { return s.name }

// Frame returns the number of ticks started so far.
func (s *Scene) Frame() uint64 { return s.frame }

// RootCount returns the number of live game objects.
func (s *Scene) RootCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// GameObjects returns a copy of the live list in activation order.
func (s *Scene) GameObjects() []*entity.GameObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.live)
}

// Exists reports whether g is pending activation or live in the scene,
// including while it waits for deactivation.
func (s *Scene) Exists(g *entity.GameObject) bool {
	if g == nil {
		violate(ErrNilObject, "Exists on scene %q", s.name)
	}
	return s.State(g) != Unregistered
}

// State returns the lifecycle state of g relative to the scene.
func (s *Scene) State(g *entity.GameObject) State {
	if g == nil {
		return Unregistered
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[g.ID()]
	if !ok || rec.object != g {
		return Unregistered
	}
	if rec.removing {
		return PendingDeactivation
	}
	return rec.state
}

// Find looks a scene object up by id.
func (s *Scene) Find(id uuid.UUID) (*entity.GameObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.object, true
}

// FindByName returns the first live object with the given name, then the first
// pending one.
func (s *Scene) FindByName(name string) (*entity.GameObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.live {
		if g.Name() == name {
			return g, true
		}
	}
	for _, rec := range s.activate {
		if rec.object.Name() == name {
			return rec.object, true
		}
	}
	return nil, false
}

// Add queues g and every descendant reachable through its transform for
// activation and calls Awake on their components. g must not be nil, destroyed,
// or already part of the scene; the same holds for its descendants.
func (s *Scene) Add(g *entity.GameObject) {
	if g == nil {
		violate(ErrNilObject, "Add on scene %q", s.name)
	}

	objects := subtree(g)
	s.mu.Lock()
	for _, obj := range objects {
		if obj.IsDestroyed() {
			s.mu.Unlock()
			violate(ErrDestroyedObject, "Add %q to scene %q", obj.Name(), s.name)
		}
		if _, ok := s.records[obj.ID()]; ok {
			s.mu.Unlock()
			violate(ErrAlreadyInScene, "Add %q to scene %q", obj.Name(), s.name)
		}
	}
	for _, obj := range objects {
		rec := &record{object: obj, state: PendingActivation}
		s.records[obj.ID()] = rec
		s.activate = append(s.activate, rec)
	}
	if s.deferred {
		for _, obj := range objects {
			s.hooks = append(s.hooks, queuedHook{object: obj, event: bus.ObjectQueued})
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	for _, obj := range objects {
		s.awaken(obj)
		s.publish(bus.ObjectQueued, obj)
	}
}

func (s *Scene) awaken(g *entity.GameObject) {
	eachComponent(g, entity.Component.Awake)
	s.log.Debug("object queued", log.String("object", g.Name()), log.Uint64("frame", s.frame))
}

// Remove queues g and its descendants for deactivation and calls Sleep on
// their components. g must exist in the scene; descendants that are not part
// of the scene are skipped. Removing an object already queued for removal does
// nothing.
func (s *Scene) Remove(g *entity.GameObject) {
	if g == nil {
		violate(ErrNilObject, "Remove on scene %q", s.name)
	}

	s.mu.Lock()
	if rec, ok := s.records[g.ID()]; !ok || rec.object != g {
		s.mu.Unlock()
		violate(ErrNotInScene, "Remove %q from scene %q", g.Name(), s.name)
	}
	var queued []*entity.GameObject
	for _, obj := range subtree(g) {
		rec, ok := s.records[obj.ID()]
		if !ok || rec.object != obj || rec.removing {
			continue
		}
		rec.removing = true
		s.deactivate = append(s.deactivate, rec)
		queued = append(queued, obj)
	}
	if s.deferred {
		for _, obj := range queued {
			s.hooks = append(s.hooks, queuedHook{object: obj, event: bus.ObjectRemoving})
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	for _, obj := range queued {
		s.sleep(obj)
		s.publish(bus.ObjectRemoving, obj)
	}
}

func (s *Scene) sleep(g *entity.GameObject) {
	eachComponent(g, entity.Component.Sleep)
	s.log.Debug("object removing", log.String("object", g.Name()), log.Uint64("frame", s.frame))
}

// Update runs one tick: prepare (activate queued objects and Start their
// components), main pass (Update every live component, bucket by bucket in
// first-seen type order, insertion order within a bucket) and finish
// (deactivate queued objects and Finish their components).
func (s *Scene) Update() {
	if s.updating {
		violate(ErrReentrantUpdate, "Update on scene %q", s.name)
	}
	s.updating = true
	defer func() { s.updating = false }()

	start := s.cfg.Clock()
	s.frame++

	s.prepareUpdate()
	s.mainPass()
	s.runQueuedHooks()
	s.dropStale()
	s.finishUpdate()

	s.lastTick = s.cfg.Clock().Sub(start)
}

func (s *Scene) prepareUpdate() {
	s.mu.Lock()
	pending := s.activate
	s.activate = nil
	s.mu.Unlock()

	for _, rec := range pending {
		if rec.object.IsDestroyed() {
			s.forget(rec)
			continue
		}
		s.addToScene(rec)
	}
}

func (s *Scene) addToScene(rec *record) {
	g := rec.object

	s.mu.Lock()
	s.live = append(s.live, g)
	rec.state = Active
	s.mu.Unlock()

	for typ, list := range g.All() {
		rec.snapshot = append(rec.snapshot, bucket{typ: typ, components: slices.Clone(list)})
	}
	for _, b := range rec.snapshot {
		merged, _ := s.components.Get(b.typ.ID())
		for _, c := range b.components {
			merged = append(merged, c)
			s.components.Set(b.typ.ID(), merged)
			if c.Attached() {
				c.Start()
			}
		}
	}

	s.log.Debug("object activated",
		log.String("object", g.Name()),
		log.Int("buckets", len(rec.snapshot)),
		log.Uint64("frame", s.frame),
	)
	s.publish(bus.ObjectActivated, g)
}

func (s *Scene) mainPass() {
	if s.cfg.Workers <= 0 {
		for _, list := range s.components.All() {
			updateAll(list)
		}
		return
	}

	s.mu.Lock()
	s.deferred = true
	s.mu.Unlock()

	buckets := sequence.From(s.components.Values()).Filter(func(list []entity.Component) bool {
		return len(list) > 0
	})
	err := concurrent.Limited(context.Background(), buckets, s.cfg.Workers, func(_ context.Context, list []entity.Component) error {
		updateAll(list)
		return nil
	})

	s.mu.Lock()
	s.deferred = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("main pass failed", log.Uint64("frame", s.frame), log.Error(err))
		violate(ErrMainPassFailed, "scene %q frame %d: %v", s.name, s.frame, err)
	}
}

func updateAll(list []entity.Component) {
	for _, c := range list {
		if c.Attached() {
			c.Update()
		}
	}
}

// runQueuedHooks runs the Awake and Sleep passes requested during a parallel
// main pass, in request order, and publishes their events as one batch.
func (s *Scene) runQueuedHooks() {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()
	if len(hooks) == 0 {
		return
	}

	events := make([]bus.Event, 0, len(hooks))
	for _, h := range hooks {
		if h.event == bus.ObjectQueued {
			s.awaken(h.object)
		} else {
			s.sleep(h.object)
		}
		events = append(events, s.event(h.event, h.object))
	}
	if s.cfg.Bus == nil {
		return
	}
	if err := s.cfg.Bus.PublishBatch(events...); err != nil {
		s.log.Warn("event delivery failed", log.Int("events", len(events)), log.Error(err))
	}
}

// dropStale takes detached components out of the aggregate lists and removes
// destroyed objects from the live set without running their hooks.
func (s *Scene) dropStale() {
	for _, id := range s.components.Keys() {
		list, _ := s.components.Get(id)
		if slices.ContainsFunc(list, isDetached) {
			s.components.Set(id, slices.DeleteFunc(list, isDetached))
		}
	}

	s.mu.Lock()
	var destroyed []*record
	for _, g := range s.live {
		if g.IsDestroyed() {
			destroyed = append(destroyed, s.records[g.ID()])
		}
	}
	if len(destroyed) > 0 {
		s.deactivate = slices.DeleteFunc(s.deactivate, func(rec *record) bool {
			return slices.Contains(destroyed, rec)
		})
	}
	s.mu.Unlock()

	for _, rec := range destroyed {
		s.removeFromScene(rec)
	}
}

func isDetached(c entity.Component) bool { return !c.Attached() }

// forget drops the record of an object destroyed before it was activated.
func (s *Scene) forget(rec *record) {
	s.mu.Lock()
	if s.records[rec.object.ID()] == rec {
		delete(s.records, rec.object.ID())
	}
	s.mu.Unlock()
}

func (s *Scene) finishUpdate() {
	s.mu.Lock()
	pending := s.deactivate
	s.deactivate = nil
	s.mu.Unlock()

	var carry []*record
	for _, rec := range pending {
		if rec.state != Active {
			if rec.object.IsDestroyed() {
				s.forget(rec)
				continue
			}
			// Queued for removal before it was ever activated; it goes through
			// one full tick first.
			carry = append(carry, rec)
			continue
		}
		s.removeFromScene(rec)
	}

	if len(carry) > 0 {
		s.mu.Lock()
		s.deactivate = append(carry, s.deactivate...)
		s.mu.Unlock()
	}
}

func (s *Scene) removeFromScene(rec *record) {
	g := rec.object

	s.mu.Lock()
	s.live = slices.DeleteFunc(s.live, func(other *entity.GameObject) bool { return other == g })
	delete(s.records, g.ID())
	s.mu.Unlock()

	gone := removalSets.Get()
	defer removalSets.Put(gone)
	for _, b := range rec.snapshot {
		clear(gone)
		for _, c := range b.components {
			gone[c] = struct{}{}
		}
		if merged, ok := s.components.Get(b.typ.ID()); ok {
			s.components.Set(b.typ.ID(), slices.DeleteFunc(merged, func(c entity.Component) bool {
				_, found := gone[c]
				return found
			}))
		}
		for _, c := range b.components {
			if c.Attached() {
				c.Finish()
			}
		}
	}
	rec.snapshot = nil

	s.log.Debug("object deactivated", log.String("object", g.Name()), log.Uint64("frame", s.frame))
	s.publish(bus.ObjectDeactivated, g)
}

// Components returns the live components of kind k across all objects. Asking
// for a kind that never joined the scene is a contract violation.
func Components[T entity.Component](s *Scene, k *rtti.Kind[T]) []T {
	list, ok := s.components.Get(k.ID())
	if !ok {
		violate(ErrUnknownComponent, "%s in scene %q", k.Name(), s.name)
	}
	out := make([]T, 0, len(list))
	for _, c := range list {
		out = append(out, rtti.DirectCast[T](c))
	}
	return out
}

// ComponentCount returns the number of live components of type t.
func (s *Scene) ComponentCount(t *rtti.Type) int {
	list, _ := s.components.Get(t.ID())
	return len(list)
}

// Stats returns a snapshot of the scene counters.
func (s *Scene) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Scene:               s.name,
		Frame:               s.frame,
		Live:                len(s.live),
		PendingActivation:   len(s.activate),
		PendingDeactivation: len(s.deactivate),
		Buckets:             s.components.Len(),
		LastTick:            s.lastTick,
		Parallel:            s.cfg.Workers > 0,
	}
	st.Components = sequence.Flatten(sequence.From(s.components.Values())).Count()
	return st
}

// Destroy destroys every live and pending object and empties the scene. No
// lifecycle hooks run. The scene can be reused afterwards.
func (s *Scene) Destroy() {
	if s.updating {
		violate(ErrReentrantUpdate, "Destroy on scene %q", s.name)
	}

	s.mu.Lock()
	objects := make([]*entity.GameObject, 0, len(s.records))
	objects = append(objects, s.live...)
	for _, rec := range s.activate {
		objects = append(objects, rec.object)
	}
	clear(s.records)
	s.live = nil
	s.activate = nil
	s.deactivate = nil
	s.hooks = nil
	s.mu.Unlock()

	s.components.Clear()
	for _, g := range objects {
		g.Destroy()
	}

	s.log.Info("scene destroyed", log.Int("objects", len(objects)), log.Uint64("frame", s.frame))
	s.publishEvent(bus.Event{Type: bus.SceneDestroyed, Scene: s.name, Frame: s.frame, Time: s.cfg.Clock()})
}

func (s *Scene) publish(typ bus.Type, g *entity.GameObject) {
	if s.cfg.Bus == nil {
		return
	}
	s.publishEvent(s.event(typ, g))
}

func (s *Scene) event(typ bus.Type, g *entity.GameObject) bus.Event {
	return bus.Event{
		Type:     typ,
		Scene:    s.name,
		ObjectID: g.ID(),
		Object:   g.Name(),
		Frame:    s.frame,
		Time:     s.cfg.Clock(),
	}
}

func (s *Scene) publishEvent(e bus.Event) {
	if s.cfg.Bus == nil {
		return
	}
	if err := s.cfg.Bus.Publish(e); err != nil {
		s.log.Warn("event delivery failed", log.String("event", string(e.Type)), log.Error(err))
	}
}

// subtree lists g followed by its transform descendants in depth-first order.
func subtree(g *entity.GameObject) []*entity.GameObject {
	out := []*entity.GameObject{g}
	if g.Transform() == nil {
		return out
	}
	for _, child := range g.Children() {
		out = append(out, subtree(child)...)
	}
	return out
}

func eachComponent(g *entity.GameObject, hook func(entity.Component)) {
	var all []entity.Component
	for _, list := range g.All() {
		all = append(all, list...)
	}
	for _, c := range all {
		hook(c)
	}
}
