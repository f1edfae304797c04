// Package stream owns the tile map of a procedural terrain and decides which
// tiles are built, shown, hidden and evicted.
package stream

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/pkg/noise"
	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

var (
	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("stream: manager closed")
	// ErrNotResident is returned when regenerating a tile that is not built.
	ErrNotResident = errors.New("stream: tile not resident")
)

// Stats counts manager activity since creation.
type Stats struct {
	Built     int
	Updated   int
	Evicted   int
	Failed    int
	Resident  int
	Pending   int
	Visible   int
	MaxHeight float64
}

// Manager owns every tile of one terrain. Sink calls and viewer reads happen
// only on the goroutine calling Bake, Rebuild, Destroy, Regenerate,
// RegenerateAll or Tick. Tile computation runs on a bounded worker pool.
type Manager struct {
	opts    Options
	factory SinkFactory
	viewer  Viewer
	log     *zap.Logger
	session uuid.UUID

	ctx    context.Context
	cancel context.CancelFunc
	pool   *pool
	max    RunningMax

	mu      sync.Mutex
	pipe    *pipeline
	tiles   map[terrain.Coord]*Tile
	pending map[terrain.Coord]*future
	nextID  int
	stats   Stats
	closed  bool
}

// New validates opts, seeds the noise field and returns a Manager with no
// tiles. viewer may be nil in fixed mode.
func New(opts Options, factory SinkFactory, viewer Viewer, log *zap.Logger) (*Manager, error) {
	if factory == nil {
		return nil, errors.New("stream: nil sink factory")
	}
	applyDefaults(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Bands = slices.Clone(opts.Bands)

	if log == nil {
		log = zap.NewNop()
	}
	session := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		opts:    opts,
		factory: factory,
		viewer:  viewer,
		log:     log.With(zap.String("session", session.String())),
		session: session,
		ctx:     ctx,
		cancel:  cancel,
		pool:    newPool(ctx, opts.Workers),
		tiles:   make(map[terrain.Coord]*Tile),
		pending: make(map[terrain.Coord]*future),
	}
	if err := m.reseed(); err != nil {
		cancel()
		return nil, err
	}

	m.log.Info("terrain manager ready",
		zap.Int64("seed", m.pipe.seed),
		zap.String("mode", string(opts.Mode)),
		zap.String("noise", opts.NoiseSource),
		zap.Int("gridLines", opts.Tile.GridLineCount()),
		zap.Int("radius", opts.Radius()),
		zap.Int("workers", opts.Workers))
	return m, nil
}

func applyDefaults(o *Options) {
	if o.NoiseSource == "" {
		o.NoiseSource = noise.SourcePerlin
	}
	if o.NormalMode == "" {
		o.NormalMode = terrain.NormalsFlat
	}
	if o.Mode == "" {
		o.Mode = ModeFixed
	}
	if o.DistanceTest == "" {
		o.DistanceTest = DistanceChebyshev
	}
	if o.Workers == 0 {
		o.Workers = DefaultOptions().Workers
	}
}

// reseed rebuilds the noise pipeline, drawing a fresh seed when the options
// ask for one. Builds still pending on the old pipeline are dropped.
func (m *Manager) reseed() error {
	seed := m.opts.Seed
	if seed == 0 || m.opts.RandomSeed {
		seed = int64(rand.Int31n(math.MaxInt32)) + 1
		m.log.Info("using random seed", zap.Int64("seed", seed))
	}

	field, err := noise.New(m.opts.NoiseSource, seed)
	if err != nil {
		return err
	}
	builder, err := terrain.NewBuilder(m.opts.Tile, field, m.opts.Height(), m.opts.NormalMode)
	if err != nil {
		return err
	}
	if m.pipe != nil {
		m.pipe.retired.Store(true)
		if n := len(m.pending); n > 0 {
			clear(m.pending)
			m.log.Debug("dropped pending builds of previous seed", zap.Int("builds", n))
		}
	}
	m.pipe = &pipeline{opts: m.opts, seed: seed, builder: builder, max: &m.max}
	return nil
}

// Bake builds the fixed grid x, y in [-n/2, n/2]. Geometry is computed in
// parallel; coloring and publishing follow grid order so the result does not
// depend on worker scheduling. Tiles already resident are kept.
func (m *Manager) Bake(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return m.bake(ctx)
}

func (m *Manager) bake(ctx context.Context) error {
	half := m.opts.NumberOfTiles / 2
	var coords []terrain.Coord
	for x := -half; x <= half; x++ {
		for y := -half; y <= half; y++ {
			c := terrain.Coord{X: x, Y: y}
			if _, ok := m.tiles[c]; ok {
				continue
			}
			if _, ok := m.pending[c]; ok {
				continue
			}
			coords = append(coords, c)
		}
	}

	builds, err := m.computeGeometry(ctx, coords)
	if err != nil {
		return fmt.Errorf("bake: %w", err)
	}

	visible := m.opts.Mode == ModeFixed
	var errs error
	for _, b := range builds {
		m.pipe.finish(b)
		errs = multierr.Append(errs, m.publish(b, visible, visible))
	}

	m.log.Info("terrain baked",
		zap.Int("tiles", len(builds)),
		zap.Int("resident", len(m.tiles)),
		zap.Float64("maxHeight", m.max.Load()))
	return errs
}

// computeGeometry builds the raw geometry of coords in parallel and returns
// it in the same order.
func (m *Manager) computeGeometry(ctx context.Context, coords []terrain.Coord) ([]*build, error) {
	pipe := m.pipe
	builds := make([]*build, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, c := range coords {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			builds[i] = pipe.geometry(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return builds, nil
}

// Rebuild destroys every tile, reseeds and bakes again. The running max
// height is kept.
func (m *Manager) Rebuild(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.destroy()
	if err := m.reseed(); err != nil {
		return err
	}
	return m.bake(ctx)
}

// Destroy clears every section, releases every tile and drops pending builds.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroy()
}

func (m *Manager) destroy() {
	n := len(m.tiles)
	for c, t := range m.tiles {
		m.discard(t)
		delete(m.tiles, c)
	}
	clear(m.pending)
	m.log.Info("terrain destroyed", zap.Int("tiles", n))
}

// Regenerate rebuilds one resident tile in place. Its sections are updated
// rather than created again and its instance buckets are refilled.
func (m *Manager) Regenerate(ctx context.Context, c terrain.Coord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t, ok := m.tiles[c]
	if !ok {
		return fmt.Errorf("regenerate %v: %w", c, ErrNotResident)
	}
	return m.update(t, m.pipe.run(c))
}

// RegenerateAll reseeds and rebuilds every resident tile in place, in grid
// order.
func (m *Manager) RegenerateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if err := m.reseed(); err != nil {
		return err
	}

	coords := m.sortedCoords(m.tiles)
	builds, err := m.computeGeometry(ctx, coords)
	if err != nil {
		return fmt.Errorf("regenerate: %w", err)
	}

	var errs error
	for _, b := range builds {
		m.pipe.finish(b)
		errs = multierr.Append(errs, m.update(m.tiles[b.coord], b))
	}
	m.log.Info("terrain regenerated", zap.Int("tiles", len(builds)), zap.Int64("seed", m.pipe.seed))
	return errs
}

// Tick streams tiles around the viewer. It is a no-op in fixed mode or when
// the viewer is unavailable. Errors of failed builds are aggregated; failed
// tiles stay absent and are retried on a later tick.
func (m *Manager) Tick(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.opts.Mode != ModeStreaming {
		return nil
	}
	if m.viewer == nil {
		return nil
	}
	pos, ok := m.viewer.Position()
	if !ok {
		m.log.Debug("viewer unavailable, skipping tick")
		return nil
	}

	center := m.tileAt(pos)
	radius := m.opts.Radius()
	area := m.area(center, radius)

	inArea := make(map[terrain.Coord]struct{}, len(area))
	for _, c := range area {
		inArea[c] = struct{}{}
	}
	for c, t := range m.tiles {
		if _, ok := inArea[c]; !ok {
			t.setVisible(false, false)
		}
	}

	var scheduled []*future
	for _, c := range area {
		if t, ok := m.tiles[c]; ok {
			t.setVisible(m.visibility(c, pos))
			continue
		}
		if _, ok := m.pending[c]; ok {
			continue
		}
		f := m.pool.submit(c, m.pipe.run)
		m.pending[c] = f
		scheduled = append(scheduled, f)
	}

	var errs error
	if m.opts.AwaitBuilds {
		for _, f := range scheduled {
			if err := f.wait(ctx); err != nil {
				errs = multierr.Append(errs, err)
				break
			}
		}
	}
	errs = multierr.Append(errs, m.drain(pos, center))
	m.evict(center, radius)

	if len(scheduled) > 0 {
		m.log.Debug("tick",
			zap.Stringer("center", center),
			zap.Int("scheduled", len(scheduled)),
			zap.Int("pending", len(m.pending)),
			zap.Int("resident", len(m.tiles)))
	}
	return errs
}

// drain publishes every completed build, nearest to the viewer first.
func (m *Manager) drain(pos mgl64.Vec3, center terrain.Coord) error {
	var ready []*future
	for c, f := range m.pending {
		if f.ready() {
			ready = append(ready, f)
			delete(m.pending, c)
		}
	}
	slices.SortFunc(ready, func(a, b *future) int {
		return compareNearest(center, a.coord, b.coord)
	})

	var errs error
	for _, f := range ready {
		if f.err != nil {
			errs = multierr.Append(errs, m.failed(f.coord, fmt.Errorf("tile %v: %w", f.coord, f.err)))
			continue
		}
		visible, assets := m.visibility(f.coord, pos)
		errs = multierr.Append(errs, m.publish(f.result, visible, assets))
	}
	return errs
}

// evict drops tiles farther than EvictFactor*radius from center.
func (m *Manager) evict(center terrain.Coord, radius int) {
	if m.opts.EvictFactor <= 0 {
		return
	}
	limit := m.opts.EvictFactor * float64(radius)
	for c, t := range m.tiles {
		if float64(chebyshev(c, center)) <= limit {
			continue
		}
		m.discard(t)
		delete(m.tiles, c)
		m.stats.Evicted++
		m.log.Debug("tile evicted", zap.Stringer("coord", c))
	}
}

// publish creates the sinks of a new tile and inserts it into the map.
func (m *Manager) publish(b *build, visible, assetsVisible bool) error {
	c := b.coord
	sink, err := m.factory.MeshSink(c)
	if err != nil {
		m.factory.Release(c)
		return m.failed(c, fmt.Errorf("tile %v: mesh sink: %w", c, err))
	}

	t := &Tile{ID: m.nextID, Coord: c, mesh: sink, instances: make(map[int]InstanceSink)}
	if err := m.upload(t, b); err != nil {
		m.discard(t)
		return m.failed(c, err)
	}
	t.apply(b)

	t.mesh.SetVisible(visible)
	for _, s := range t.instances {
		s.SetVisible(assetsVisible)
	}
	t.Visible, t.AssetsVisible = visible, assetsVisible

	m.tiles[c] = t
	m.nextID++
	m.stats.Built++
	m.log.Debug("tile created",
		zap.Stringer("coord", c),
		zap.Int("id", t.ID),
		zap.Float64("maxZ", t.MaxZ),
		zap.Float32s("boundsMin", t.Bounds.Min[:]),
		zap.Float32s("boundsMax", t.Bounds.Max[:]),
		zap.Uint64("fingerprint", t.Fingerprint))
	return nil
}

// update pushes a rebuilt tile into its existing sinks. On failure the
// previous buffers are uploaded again so the sinks match the tile.
func (m *Manager) update(t *Tile, b *build) error {
	if err := m.upload(t, b); err != nil {
		if rerr := m.upload(t, t.previous()); rerr != nil {
			m.log.Warn("tile restore failed", zap.Stringer("coord", t.Coord), zap.Error(rerr))
		}
		return m.failed(t.Coord, err)
	}
	t.apply(b)
	m.stats.Updated++
	m.log.Debug("tile updated", zap.Stringer("coord", t.Coord), zap.Uint64("fingerprint", t.Fingerprint))
	return nil
}

// upload sends b to t's sinks. Sections are created on the first upload and
// updated afterwards.
func (m *Manager) upload(t *Tile, b *build) error {
	c := t.Coord
	if t.Generated {
		if err := t.mesh.UpdateSection(SectionTerrain, b.geom.Mesh); err != nil {
			return fmt.Errorf("tile %v: update terrain section: %w", c, err)
		}
	} else {
		if err := t.mesh.CreateSection(SectionTerrain, b.geom.Mesh); err != nil {
			return fmt.Errorf("tile %v: create terrain section: %w", c, err)
		}
		if m.opts.TerrainMaterial != "" {
			if err := t.mesh.SetSectionMaterial(SectionTerrain, m.opts.TerrainMaterial); err != nil {
				return fmt.Errorf("tile %v: terrain material: %w", c, err)
			}
		}
	}

	switch {
	case b.water != nil && t.Water != nil:
		if err := t.mesh.UpdateSection(SectionWater, b.water); err != nil {
			return fmt.Errorf("tile %v: update water section: %w", c, err)
		}
	case b.water != nil:
		if err := t.mesh.CreateSection(SectionWater, b.water); err != nil {
			return fmt.Errorf("tile %v: create water section: %w", c, err)
		}
		if m.opts.WaterMaterial != "" {
			if err := t.mesh.SetSectionMaterial(SectionWater, m.opts.WaterMaterial); err != nil {
				return fmt.Errorf("tile %v: water material: %w", c, err)
			}
		}
	case t.Water != nil:
		t.mesh.ClearSection(SectionWater)
	}

	// Instance sinks are touched only once every section has been accepted.
	fresh := make(map[int]bool)
	for _, bucket := range b.buckets {
		if bucket.Mesh == "" || len(bucket.Instances) == 0 {
			continue
		}
		if _, ok := t.instances[bucket.Band]; ok {
			continue
		}
		s, err := m.factory.InstanceSink(c, bucket.Band)
		if err != nil {
			return fmt.Errorf("tile %v: instance sink %d: %w", c, bucket.Band, err)
		}
		t.instances[bucket.Band] = s
		fresh[bucket.Band] = true
		if err := s.SetMesh(bucket.Mesh); err != nil {
			return fmt.Errorf("tile %v: instance mesh %q: %w", c, bucket.Mesh, err)
		}
		s.SetVisible(t.AssetsVisible)
	}

	for band, s := range t.instances {
		if !fresh[band] {
			s.ClearInstances()
		}
	}
	for _, bucket := range b.buckets {
		if bucket.Mesh == "" {
			continue
		}
		s, ok := t.instances[bucket.Band]
		if !ok {
			continue
		}
		for _, in := range bucket.Instances {
			if err := s.AddInstance(in); err != nil {
				return fmt.Errorf("tile %v: add instance to band %d: %w", c, bucket.Band, err)
			}
		}
	}
	return nil
}

// discard clears t's sinks and hands its coordinate back to the factory.
func (m *Manager) discard(t *Tile) {
	if t.mesh != nil {
		t.mesh.ClearSection(SectionTerrain)
		t.mesh.ClearSection(SectionWater)
		t.mesh.SetVisible(false)
	}
	for _, s := range t.instances {
		s.ClearInstances()
		s.SetVisible(false)
	}
	m.factory.Release(t.Coord)
}

func (m *Manager) failed(c terrain.Coord, err error) error {
	m.stats.Failed++
	m.log.Warn("tile build failed", zap.Stringer("coord", c), zap.Error(err))
	return err
}

// tileAt returns the tile containing a world position.
func (m *Manager) tileAt(pos mgl64.Vec3) terrain.Coord {
	size := m.opts.Tile.WorldTileSize()
	x, y := pos.X()/size, pos.Y()/size
	if m.opts.Tile.Centered {
		x, y = x+0.5, y+0.5
	}
	return terrain.Coord{X: int(math.Floor(x)), Y: int(math.Floor(y))}
}

// tileCenter returns the world XY of the middle of a tile.
func (m *Manager) tileCenter(c terrain.Coord) mgl64.Vec2 {
	size := m.opts.Tile.WorldTileSize()
	center := mgl64.Vec2{float64(c.X) * size, float64(c.Y) * size}
	if !m.opts.Tile.Centered {
		center = center.Add(mgl64.Vec2{size / 2, size / 2})
	}
	return center
}

// visibility decides terrain and asset visibility from the distance between
// the viewer and the tile center.
func (m *Manager) visibility(c terrain.Coord, pos mgl64.Vec3) (terrainVisible, assetsVisible bool) {
	d := m.tileCenter(c).Sub(mgl64.Vec2{pos.X(), pos.Y()}).Len()
	return d <= m.opts.ViewDistance(), d <= m.opts.AssetDistance()
}

// area lists the coordinates streamed around center, nearest first.
func (m *Manager) area(center terrain.Coord, radius int) []terrain.Coord {
	var out []terrain.Coord
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if m.opts.DistanceTest == DistanceEuclidean && dx*dx+dy*dy > radius*radius {
				continue
			}
			out = append(out, terrain.Coord{X: center.X + dx, Y: center.Y + dy})
		}
	}
	slices.SortFunc(out, func(a, b terrain.Coord) int {
		return compareNearest(center, a, b)
	})
	return out
}

func (m *Manager) sortedCoords(tiles map[terrain.Coord]*Tile) []terrain.Coord {
	out := make([]terrain.Coord, 0, len(tiles))
	for c := range tiles {
		out = append(out, c)
	}
	slices.SortFunc(out, compareCoord)
	return out
}

func chebyshev(a, b terrain.Coord) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func compareCoord(a, b terrain.Coord) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

func compareNearest(center, a, b terrain.Coord) int {
	da := (a.X-center.X)*(a.X-center.X) + (a.Y-center.Y)*(a.Y-center.Y)
	db := (b.X-center.X)*(b.X-center.X) + (b.Y-center.Y)*(b.Y-center.Y)
	if c := cmp.Compare(da, db); c != 0 {
		return c
	}
	return compareCoord(a, b)
}

// Tile returns a snapshot of the resident tile at c.
func (m *Manager) Tile(c terrain.Coord) (Tile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tiles[c]
	if !ok {
		return Tile{}, false
	}
	return *t, true
}

// HeightAt returns the terrain height under a world XY position and whether
// the tile holding it is resident.
func (m *Manager) HeightAt(x, y float64) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.tileAt(mgl64.Vec3{x, y, 0})
	t, ok := m.tiles[c]
	if !ok || t.geom == nil {
		return 0, false
	}
	size := m.opts.Tile.WorldTileSize()
	return t.geom.HeightAt(x-float64(c.X)*size, y-float64(c.Y)*size), true
}

// State reports the lifecycle stage of the tile at c.
func (m *Manager) State(c terrain.Coord) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tiles[c]; ok {
		return StateResident
	}
	if _, ok := m.pending[c]; ok {
		return StateBuilding
	}
	return StateAbsent
}

// Resident returns the coordinates of every built tile, sorted.
func (m *Manager) Resident() []terrain.Coord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedCoords(m.tiles)
}

// Visible returns the coordinates of visible tiles, sorted.
func (m *Manager) Visible() []terrain.Coord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []terrain.Coord
	for c, t := range m.tiles {
		if t.Visible {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, compareCoord)
	return out
}

// Pending returns the coordinates of builds not yet published, sorted.
func (m *Manager) Pending() []terrain.Coord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]terrain.Coord, 0, len(m.pending))
	for c := range m.pending {
		out = append(out, c)
	}
	slices.SortFunc(out, compareCoord)
	return out
}

// MaxHeight returns the tallest Z seen by any build so far.
func (m *Manager) MaxHeight() float64 {
	return m.max.Load()
}

// Seed returns the global seed in use.
func (m *Manager) Seed() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipe.seed
}

// Session returns the id attached to this manager's log lines.
func (m *Manager) Session() string {
	return m.session.String()
}

// Options returns the validated options with defaults applied.
func (m *Manager) Options() Options {
	return m.opts
}

// Stats returns a snapshot of the activity counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Resident = len(m.tiles)
	s.Pending = len(m.pending)
	for _, t := range m.tiles {
		if t.Visible {
			s.Visible++
		}
	}
	s.MaxHeight = m.max.Load()
	return s
}

// Close stops scheduling and waits for in-flight builds to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.cancel()
	m.mu.Unlock()

	m.pool.wait()
	m.log.Debug("terrain manager closed")
}
