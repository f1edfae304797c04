// Package memsink provides in-memory mesh and instance sinks that record
// what they receive, plus a scripted viewer.
package memsink

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-terrain/pkg/biome"
	"github.com/Faultbox/midgard-terrain/pkg/scatter"
	"github.com/Faultbox/midgard-terrain/pkg/stream"
	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

var (
	_ stream.SinkFactory = (*Factory)(nil)
	_ stream.Viewer      = (*Viewer)(nil)
)

// ErrInjected is returned by sinks armed with Factory.FailNext.
var ErrInjected = errors.New("memsink: injected failure")

// Section is one recorded mesh section.
type Section struct {
	Mesh     *terrain.MeshBuffers
	Material biome.Handle
	Creates  int
	Updates  int
}

// Mesh records the sections of one tile.
type Mesh struct {
	Coord    terrain.Coord
	Sections map[int]*Section
	Visible  bool
	Cleared  int

	fail     error
	failOnID map[int]error
}

func (m *Mesh) CreateSection(id int, mesh *terrain.MeshBuffers) error {
	if err := m.takeFailure(id); err != nil {
		return err
	}
	s, ok := m.Sections[id]
	if !ok {
		s = &Section{}
		m.Sections[id] = s
	}
	s.Mesh = mesh
	s.Creates++
	return nil
}

func (m *Mesh) UpdateSection(id int, mesh *terrain.MeshBuffers) error {
	if err := m.takeFailure(id); err != nil {
		return err
	}
	s, ok := m.Sections[id]
	if !ok {
		return fmt.Errorf("memsink: update of missing section %d on %v", id, m.Coord)
	}
	s.Mesh = mesh
	s.Updates++
	return nil
}

func (m *Mesh) SetSectionMaterial(id int, material biome.Handle) error {
	s, ok := m.Sections[id]
	if !ok {
		return fmt.Errorf("memsink: material for missing section %d on %v", id, m.Coord)
	}
	s.Material = material
	return nil
}

func (m *Mesh) SetVisible(visible bool) {
	m.Visible = visible
}

func (m *Mesh) ClearSection(id int) {
	if _, ok := m.Sections[id]; ok {
		delete(m.Sections, id)
		m.Cleared++
	}
}

func (m *Mesh) takeFailure(id int) error {
	if err := m.fail; err != nil {
		m.fail = nil
		return err
	}
	if err, ok := m.failOnID[id]; ok {
		delete(m.failOnID, id)
		return err
	}
	return nil
}

// Instances records the instances of one band on one tile.
type Instances struct {
	Coord   terrain.Coord
	Band    int
	Mesh    biome.Handle
	Items   []scatter.Instance
	Visible bool
	Clears  int
}

func (s *Instances) SetMesh(mesh biome.Handle) error {
	s.Mesh = mesh
	return nil
}

func (s *Instances) AddInstance(in scatter.Instance) error {
	s.Items = append(s.Items, in)
	return nil
}

func (s *Instances) ClearInstances() {
	s.Items = s.Items[:0]
	s.Clears++
}

func (s *Instances) SetVisible(visible bool) {
	s.Visible = visible
}

type instanceKey struct {
	coord terrain.Coord
	band  int
}

// Factory hands out recording sinks and remembers them until released.
type Factory struct {
	mu        sync.Mutex
	meshes    map[terrain.Coord]*Mesh
	instances map[instanceKey]*Instances
	failures  map[terrain.Coord]error
	released  []terrain.Coord
	created   int
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{
		meshes:    make(map[terrain.Coord]*Mesh),
		instances: make(map[instanceKey]*Instances),
		failures:  make(map[terrain.Coord]error),
	}
}

// FailNext makes the next section upload for c fail with ErrInjected.
func (f *Factory) FailNext(c terrain.Coord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.meshes[c]; ok {
		m.fail = ErrInjected
		return
	}
	f.failures[c] = ErrInjected
}

// FailSection makes the next upload of section id on the live mesh sink of c
// fail with ErrInjected. It reports whether c has a live mesh sink.
func (f *Factory) FailSection(c terrain.Coord, id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meshes[c]
	if !ok {
		return false
	}
	if m.failOnID == nil {
		m.failOnID = make(map[int]error)
	}
	m.failOnID[id] = ErrInjected
	return true
}

// MeshSink returns the mesh sink for c, creating it when needed.
func (f *Factory) MeshSink(c terrain.Coord) (stream.MeshSink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.meshes[c]; ok {
		return m, nil
	}
	m := &Mesh{Coord: c, Sections: make(map[int]*Section), fail: f.failures[c]}
	delete(f.failures, c)
	f.meshes[c] = m
	f.created++
	return m, nil
}

// InstanceSink returns the instance sink of band on c, creating it when needed.
func (f *Factory) InstanceSink(c terrain.Coord, band int) (stream.InstanceSink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := instanceKey{c, band}
	if s, ok := f.instances[k]; ok {
		return s, nil
	}
	s := &Instances{Coord: c, Band: band}
	f.instances[k] = s
	return s, nil
}

// Release forgets every sink of c.
func (f *Factory) Release(c terrain.Coord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.meshes, c)
	for k := range f.instances {
		if k.coord == c {
			delete(f.instances, k)
		}
	}
	f.released = append(f.released, c)
}

// Mesh returns the live mesh sink of c, or nil.
func (f *Factory) Mesh(c terrain.Coord) *Mesh {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meshes[c]
}

// Instances returns the live instance sink of band on c, or nil.
func (f *Factory) Instances(c terrain.Coord, band int) *Instances {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[instanceKey{c, band}]
}

// Coords returns the coordinates holding a live mesh sink, sorted.
func (f *Factory) Coords() []terrain.Coord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]terrain.Coord, 0, len(f.meshes))
	for c := range f.meshes {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b terrain.Coord) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Y - b.Y
	})
	return out
}

// Released returns every released coordinate in release order.
func (f *Factory) Released() []terrain.Coord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.released)
}

// Created returns how many mesh sinks were handed out.
func (f *Factory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

// Viewer is a settable viewer position.
type Viewer struct {
	mu  sync.Mutex
	pos mgl64.Vec3
	ok  bool
}

// NewViewer returns a viewer bound at pos.
func NewViewer(pos mgl64.Vec3) *Viewer {
	return &Viewer{pos: pos, ok: true}
}

// Position implements the stream viewer query.
func (v *Viewer) Position() (mgl64.Vec3, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos, v.ok
}

// Set binds the viewer at pos.
func (v *Viewer) Set(pos mgl64.Vec3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pos, v.ok = pos, true
}

// Move offsets the viewer by d.
func (v *Viewer) Move(d mgl64.Vec3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pos = v.pos.Add(d)
}

// Unbind makes the viewer unavailable.
func (v *Viewer) Unbind() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ok = false
}
