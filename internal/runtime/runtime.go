package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/scenery/internal/config"
	"github.com/zeusync/scenery/internal/core/entity"
	"github.com/zeusync/scenery/internal/core/events/bus"
	"github.com/zeusync/scenery/internal/core/observability/log"
	"github.com/zeusync/scenery/internal/core/scene"
	"github.com/zeusync/scenery/internal/inspector"
	"github.com/zeusync/scenery/internal/scripting"
)

var ErrTickFailed = errors.New("scene tick failed")

// Runtime ticks one scene at a fixed rate.
type Runtime struct {
	cfg       *config.Config
	log       log.Log
	bus       bus.EventBus
	scene     *scene.Scene
	inspector *inspector.Server
	objects   map[string]*entity.GameObject
}

// NewScene builds the scene described by cfg.
func NewScene(cfg *config.Config, logger log.Log, b bus.EventBus) *scene.Scene {
	return scene.New(cfg.Scene.Name,
		scene.WithLogger(logger),
		scene.WithEventBus(b),
		scene.WithParallelUpdate(cfg.Scene.Workers),
	)
}

// NewInspector returns nil when the inspector is disabled.
func NewInspector(cfg *config.Config, logger log.Log) *inspector.Server {
	if !cfg.Inspector.Enabled {
		return nil
	}
	return inspector.New(logger)
}

// New creates the configured objects and queues them into sc. insp may be nil.
func New(cfg *config.Config, logger log.Log, b bus.EventBus, sc *scene.Scene, insp *inspector.Server) (*Runtime, error) {
	r := &Runtime{
		cfg:       cfg,
		log:       logger.With(log.String("scene", cfg.Scene.Name)),
		bus:       b,
		scene:     sc,
		inspector: insp,
		objects:   make(map[string]*entity.GameObject, len(cfg.Objects)),
	}
	if err := r.populate(); err != nil {
		for _, g := range r.objects {
			g.Destroy()
		}
		return nil, err
	}
	return r, nil
}

func (r *Runtime) Scene() *scene.Scene { return r.scene }

// Object returns a configured object by name.
func (r *Runtime) Object(name string) (*entity.GameObject, bool) {
	g, ok := r.objects[name]
	return g, ok
}

func (r *Runtime) populate() error {
	for _, oc := range r.cfg.Objects {
		g := entity.New(oc.Name)
		r.objects[oc.Name] = g

		t := g.Transform()
		if len(oc.Position) == 3 {
			t.SetLocalPosition(mgl64.Vec3{oc.Position[0], oc.Position[1], oc.Position[2]})
		}
		if len(oc.Scale) == 3 {
			t.SetLocalScale(mgl64.Vec3{oc.Scale[0], oc.Scale[1], oc.Scale[2]})
		}

		var (
			b   *scripting.Behaviour
			err error
		)
		switch {
		case oc.Script != "":
			b, err = scripting.New(oc.Name, oc.Script, r.log)
		case oc.ScriptFile != "":
			b, err = scripting.NewFromFile(oc.ScriptFile, r.log)
		}
		if err != nil {
			return fmt.Errorf("object %q: %w", oc.Name, err)
		}
		if b != nil {
			entity.Attach(g, b)
		}
	}

	for _, oc := range r.cfg.Objects {
		if oc.Parent == "" {
			continue
		}
		parent, ok := r.objects[oc.Parent]
		if !ok {
			return fmt.Errorf("object %q: %w: unknown parent %q", oc.Name, config.ErrInvalid, oc.Parent)
		}
		parent.Transform().Add(r.objects[oc.Name].Transform())
	}

	for _, oc := range r.cfg.Objects {
		if oc.Parent == "" {
			r.scene.Add(r.objects[oc.Name])
		}
	}
	return nil
}

// Run ticks the scene until ctx is done or the configured number of frames has
// run, then destroys the scene. It returns an error when the inspector cannot
// start or a tick failed.
func (r *Runtime) Run(ctx context.Context) error {
	defer r.scene.Destroy()

	if r.inspector != nil {
		if err := r.inspector.Start(r.cfg.Inspector.Addr); err != nil {
			return err
		}
		defer r.shutdownInspector()

		sub, err := r.inspector.Attach(r.bus)
		if err != nil {
			return fmt.Errorf("attach inspector: %w", err)
		}
		defer func() { _ = r.bus.Unsubscribe(sub) }()
	}

	period := time.Second / time.Duration(r.cfg.Scene.TickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	watch := &deliveryWatch{log: r.log, slow: period / 2}
	r.bus.AddObserver(watch)
	defer r.bus.RemoveObserver(watch)

	r.log.Info("runtime started",
		log.Duration("period", period),
		log.Uint64("frames", r.cfg.Scene.Frames),
		log.Int("workers", r.cfg.Scene.Workers),
	)

	var frames uint64
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runtime stopped", log.Uint64("frames", frames), log.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			if err := r.tick(); err != nil {
				r.log.Error("runtime aborted", log.Uint64("frames", frames), log.Error(err))
				return err
			}
			frames++
			if r.cfg.Scene.Frames > 0 && frames >= r.cfg.Scene.Frames {
				r.log.Info("runtime finished", log.Uint64("frames", frames))
				return nil
			}
		}
	}
}

func (r *Runtime) shutdownInspector() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.inspector.Shutdown(ctx); err != nil {
		r.log.Warn("inspector shutdown", log.Error(err))
	}
}

func (r *Runtime) tick() (err error) {
	defer func() {
		if p := recover(); p != nil {
			if perr, ok := p.(error); ok {
				err = fmt.Errorf("%w: %w", ErrTickFailed, perr)
			} else {
				err = fmt.Errorf("%w: %v", ErrTickFailed, p)
			}
		}
	}()

	r.scene.Update()
	if r.inspector != nil {
		r.inspector.PublishStats(r.scene.Stats(), r.bus.Metrics())
	}
	return nil
}
