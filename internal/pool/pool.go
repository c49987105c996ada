// Package pool owns every spawnable instance. Entries live in one dense
// arena; each template keeps a LIFO free list of inactive arena indices, so
// finding an inactive instance of a template is O(1).
package pool

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/squarefall/spawner/internal/core/ecs"
	"github.com/squarefall/spawner/internal/data"
	"github.com/squarefall/spawner/internal/world"
)

// Effects is the visual-effects collaborator. ClearTrails is called on
// every deactivation, StartTrail on every activation.
type Effects interface {
	StartTrail(id ecs.EntityID, pos world.Vec2)
	ClearTrails(id ecs.EntityID)
}

type noEffects struct{}

func (noEffects) StartTrail(ecs.EntityID, world.Vec2) {}
func (noEffects) ClearTrails(ecs.EntityID)            {}

// Template is a spawnable kind as the pool sees it.
type Template struct {
	Name         string
	MaxInstances int
}

// TemplatesFrom keeps the configured element order, so a spawn.Distribution
// index is also a template index.
func TemplatesFrom(elements []data.SpawnElement) []Template {
	out := make([]Template, len(elements))
	for i, e := range elements {
		out[i] = Template{Name: e.Template, MaxInstances: e.MaxCount}
	}
	return out
}

type entryState uint8

const (
	stateFree     entryState = iota // inactive, on its template's free list
	stateReserved                   // handed out by Acquire, not yet placed
	stateActive
)

// Entry is one pooled instance.
type Entry struct {
	ID       ecs.EntityID
	Template int
	Position world.Vec2
	state    entryState
}

func (e *Entry) Active() bool { return e.state == stateActive }

// Pool is accessed only from the game loop goroutine.
type Pool struct {
	templates []Template
	entries   []Entry
	slots     *ecs.Slots
	free      [][]uint32 // per template, indices into entries
	active    int
	fallbacks int
	fx        Effects
	log       *zap.Logger
}

// New pre-warms exactly MaxInstances inactive entries per template, parked
// at OffField. fx may be nil.
func New(templates []Template, fx Effects, log *zap.Logger) *Pool {
	if fx == nil {
		fx = noEffects{}
	}
	total := 0
	for _, t := range templates {
		total += t.MaxInstances
	}
	p := &Pool{
		templates: append([]Template(nil), templates...),
		entries:   make([]Entry, 0, total),
		slots:     ecs.NewSlots(total),
		free:      make([][]uint32, len(templates)),
		fx:        fx,
		log:       log,
	}
	for ti, t := range p.templates {
		p.free[ti] = make([]uint32, 0, t.MaxInstances)
		for i := 0; i < t.MaxInstances; i++ {
			p.push(ti, p.grow(ti))
		}
	}
	return p
}

func (p *Pool) grow(template int) uint32 {
	id := p.slots.Grow()
	p.entries = append(p.entries, Entry{ID: id, Template: template, Position: world.OffField})
	return id.Index()
}

func (p *Pool) push(template int, idx uint32) {
	p.free[template] = append(p.free[template], idx)
}

// Acquire reserves an inactive entry of the template and returns its handle.
// An exhausted template grows by one entry and logs a warning. An unknown
// template index is a programming error and panics.
func (p *Pool) Acquire(template int) ecs.EntityID {
	if template < 0 || template >= len(p.templates) {
		panic(fmt.Sprintf("pool: acquire of unregistered template %d", template))
	}
	list := p.free[template]
	var idx uint32
	if n := len(list); n > 0 {
		idx = list[n-1]
		p.free[template] = list[:n-1]
	} else {
		idx = p.grow(template)
		p.fallbacks++
		p.log.Warn("pool exhausted, created extra instance",
			zap.String("template", p.templates[template].Name),
			zap.Int("capacity", p.templates[template].MaxInstances),
			zap.Int("fallbacks", p.fallbacks))
	}
	e := &p.entries[idx]
	e.state = stateReserved
	return e.ID
}

// Activate places an acquired entry and marks it active.
func (p *Pool) Activate(id ecs.EntityID, pos world.Vec2) bool {
	e := p.lookup(id)
	if e == nil || e.state != stateReserved {
		return false
	}
	e.Position = pos
	e.state = stateActive
	p.active++
	p.fx.ClearTrails(id)
	p.fx.StartTrail(id, pos)
	return true
}

// Release returns an acquired or active entry to its free list and clears
// its trails. The handle is invalidated; stale or free handles are ignored.
func (p *Pool) Release(id ecs.EntityID) bool {
	e := p.lookup(id)
	if e == nil || e.state == stateFree {
		return false
	}
	p.release(e)
	return true
}

func (p *Pool) release(e *Entry) {
	if e.state == stateActive {
		p.active--
	}
	p.fx.ClearTrails(e.ID)
	next, _ := p.slots.Recycle(e.ID)
	e.ID = next
	e.state = stateFree
	e.Position = world.OffField
	p.push(e.Template, e.ID.Index())
}

// DeactivateAll releases every acquired or active entry.
func (p *Pool) DeactivateAll() int {
	n := 0
	for i := range p.entries {
		if e := &p.entries[i]; e.state != stateFree {
			p.release(e)
			n++
		}
	}
	return n
}

func (p *Pool) lookup(id ecs.EntityID) *Entry {
	if !p.slots.Alive(id) {
		return nil
	}
	return &p.entries[id.Index()]
}

// Get returns a copy of the entry behind id.
func (p *Pool) Get(id ecs.EntityID) (Entry, bool) {
	e := p.lookup(id)
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// SetPosition moves an active entry.
func (p *Pool) SetPosition(id ecs.EntityID, pos world.Vec2) bool {
	e := p.lookup(id)
	if e == nil || e.state != stateActive {
		return false
	}
	e.Position = pos
	return true
}

// EachActive calls fn for every active entry in arena order. fn must not
// Acquire or Release; collect handles and release after the scan.
func (p *Pool) EachActive(fn func(e *Entry)) {
	for i := range p.entries {
		if p.entries[i].state == stateActive {
			fn(&p.entries[i])
		}
	}
}

func (p *Pool) ActiveCount() int { return p.active }

// Len is the number of entries ever created, pre-warmed plus fallbacks.
func (p *Pool) Len() int { return len(p.entries) }

// Fallbacks counts entries created beyond pre-warmed capacity.
func (p *Pool) Fallbacks() int { return p.fallbacks }

// FreeCount is the number of inactive entries of a template.
func (p *Pool) FreeCount(template int) int { return len(p.free[template]) }

func (p *Pool) Templates() int { return len(p.templates) }

func (p *Pool) Template(i int) Template { return p.templates[i] }
