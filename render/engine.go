// Package render turns observer movement and asynchronously-arriving artist
// data into incremental draw commands for the galaxy frontend. One Engine
// serves one viewing session; its entry points must be called in event
// order, since every transition is diffed against prior state.
package render

import (
	"math"
	"math/rand"
	"sort"

	"github.com/amonks/galaxy/data"
	"github.com/amonks/galaxy/galaxy"
	"github.com/amonks/galaxy/packed"
)

// Flags are an artist's independently-settable render capabilities.
type Flags uint8

const (
	FlagRenderLabel Flags = 1 << iota
	FlagRenderConnections
	FlagRenderGeometry
	FlagHasName
	FlagRecentlyPlayed
	FlagHighlighted
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

// Config holds the tuning constants for the render policies. Zero values are
// not useful; start from DefaultConfig.
type Config struct {
	// Labels always render inside LabelNearDistance. Beyond it, an
	// artist's label score is distance − popularity²·LabelPopularityWeight
	// + LabelDensityWeight·renderedCount^1.5, halved when highlighted, and
	// renders while under LabelBudget. The superlinear density term keeps
	// label count from growing without bound in dense regions.
	LabelNearDistance     float32
	LabelBudget           float32
	LabelPopularityWeight float32
	LabelDensityWeight    float32

	// Geometry renders inside GeometryNearDistance, always when
	// highlighted, and otherwise while distance −
	// popularity³·GeometryPopularityWeight is under GeometryBudget.
	GeometryNearDistance     float32
	GeometryBudget           float32
	GeometryPopularityWeight float32

	// Music auto-plays from the nearest artist within
	// MaxMusicPlayDistance and stops when the viewer projects to travel
	// beyond it (doubled for manually-started playback).
	MaxMusicPlayDistance float32

	// RecentlyPlayedCap bounds the recently-played FIFO; the oldest entry
	// becomes eligible for auto-play again when it overflows.
	RecentlyPlayedCap int

	MaxRelatedPerArtist int

	// Up to HighlightLabelCount highlighted artists get spread-out
	// supplementary labels, plus up to ExtraHighlightLabels random ones
	// at least MinHighlightLabelSeparation from every placed label.
	HighlightLabelCount         int
	ExtraHighlightLabels        int
	MinHighlightLabelSeparation float32

	// AlwaysShown labels survive mode transitions.
	AlwaysShown []uint32

	// Quality raises the floor of the connection-sampling probability.
	Quality uint8

	Seed int64
}

func DefaultConfig() Config {
	return Config{
		LabelNearDistance:     20,
		LabelBudget:           80,
		LabelPopularityWeight: 0.0008,
		LabelDensityWeight:    0.5,

		GeometryNearDistance:     40,
		GeometryBudget:           120,
		GeometryPopularityWeight: 3e-6,

		MaxMusicPlayDistance: 60,
		RecentlyPlayedCap:    16,

		MaxRelatedPerArtist: 20,

		HighlightLabelCount:         7,
		ExtraHighlightLabels:        3,
		MinHighlightLabelSeparation: 15,

		Quality: 4,
	}
}

// Artist is one engine input: an artist's galaxy-space position and
// popularity. The engine sees only the viewer's loaded subset of the
// universe; ids referenced by relationship or highlight data but absent here
// are silently skipped.
type Artist struct {
	ID         uint32
	Position   data.Vector
	Popularity uint8
}

type edge struct {
	relatedIx    int
	connectionIx int
}

type artistState struct {
	id         uint32
	position   data.Vector
	popularity uint8
	flags      Flags
	related    []edge
}

type retainedChunk struct {
	ix, size int
	buf      []byte
}

// Engine is the per-session render state machine. It is not safe for
// concurrent use: a session's events are already serialized, and reordering
// them would corrupt the diffs anyway.
type Engine struct {
	cfg  Config
	rng  *rand.Rand
	grid *galaxy.Grid

	artists []artistState
	byID    map[uint32]int

	// reach is the largest distance at which any render policy can
	// possibly fire; beyond it an artist needs no re-evaluation.
	reach float32

	last    data.Vector
	hasLast bool

	playingIx     int
	playingManual bool

	recentlyPlayed []int
	labelCount     int
	flyThrough     bool

	chunks          []retainedChunk
	connections     map[[2]int]int
	connectionCount int

	highlighted     []int
	highlightLabels []int
}

// NewEngine builds an engine over the given artists. Artists are indexed in
// ascending id order, which is also the order relationship chunks address
// them in.
func NewEngine(artists []Artist, cfg Config) *Engine {
	sorted := make([]Artist, len(artists))
	copy(sorted, artists)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	eng := &Engine{
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		artists:     make([]artistState, len(sorted)),
		byID:        make(map[uint32]int, len(sorted)),
		playingIx:   -1,
		connections: make(map[[2]int]int),
	}

	points := make([]galaxy.Point, len(sorted))
	for i, a := range sorted {
		eng.artists[i] = artistState{
			id:         a.ID,
			position:   a.Position,
			popularity: a.Popularity,
		}
		eng.byID[a.ID] = i
		points[i] = galaxy.Point{Index: i, Position: a.Position}
	}
	eng.grid = galaxy.BuildGrid(points)

	labelBoost := 255 * 255 * cfg.LabelPopularityWeight
	geometryBoost := 255 * 255 * 255 * cfg.GeometryPopularityWeight
	eng.reach = cfg.LabelBudget + labelBoost
	for _, r := range []float32{
		cfg.GeometryBudget + geometryBoost,
		cfg.LabelNearDistance,
		cfg.GeometryNearDistance,
		cfg.MaxMusicPlayDistance,
	} {
		if r > eng.reach {
			eng.reach = r
		}
	}

	return eng
}

func emit(cmds *[]uint32, op, id uint32) {
	*cmds = append(*cmds, op, id)
}

// UpdatePosition re-evaluates visibility for the new observer position and
// returns the resulting draw commands. cur is where the observer is;
// projectedNext is where it will be next frame, used only for music
// continuation. A bit-identical cur is a no-op.
func (eng *Engine) UpdatePosition(cur, projectedNext data.Vector) []uint32 {
	if eng.hasLast && cur.Equal(eng.last) {
		return nil
	}

	var cmds []uint32
	for _, ix := range eng.candidates(cur) {
		eng.applyVisibility(ix, cur, &cmds)
	}
	eng.applyMusic(cur, projectedNext, &cmds)

	eng.last = append(eng.last[:0], cur...)
	eng.hasLast = true

	return cmds
}

// candidates returns the artist indexes whose render state could change at
// the new position: everything the grid says is within policy reach (padded
// by how far the observer moved), plus anything currently rendered or
// playing, which must stay eligible for retraction no matter how far away
// it now is.
func (eng *Engine) candidates(cur data.Vector) []int {
	if !eng.hasLast {
		all := make([]int, len(eng.artists))
		for i := range all {
			all[i] = i
		}
		return all
	}

	margin := eng.last.Distance(cur)

	seen := make(map[int]bool)
	var out []int
	for _, hit := range eng.grid.QueryEnvelope(cur, []float32{eng.reach}, margin) {
		for _, ix := range hit.Indexes {
			if !seen[ix] {
				seen[ix] = true
				out = append(out, ix)
			}
		}
	}
	for ix := range eng.artists {
		if !seen[ix] && eng.artists[ix].flags.Has(FlagRenderLabel|FlagRenderGeometry) {
			seen[ix] = true
			out = append(out, ix)
		}
	}
	if eng.playingIx >= 0 && !seen[eng.playingIx] {
		out = append(out, eng.playingIx)
	}
	return out
}

func (eng *Engine) applyVisibility(ix int, cur data.Vector, cmds *[]uint32) {
	a := &eng.artists[ix]
	d := a.position.Distance(cur)

	shouldGeometry := eng.shouldRenderGeometry(a, d)
	if shouldGeometry && !a.flags.Has(FlagRenderGeometry) {
		a.flags |= FlagRenderGeometry
		emit(cmds, packed.CmdAddGeometry, a.id)
	} else if !shouldGeometry && a.flags.Has(FlagRenderGeometry) {
		a.flags &^= FlagRenderGeometry
		emit(cmds, packed.CmdRemoveGeometry, a.id)
	}

	shouldLabel := eng.shouldRenderLabel(ix, d)
	if shouldLabel && !a.flags.Has(FlagRenderLabel) {
		a.flags |= FlagRenderLabel
		if a.flags.Has(FlagHasName) {
			emit(cmds, packed.CmdAddLabel, a.id)
			eng.labelCount++
		} else {
			emit(cmds, packed.CmdFetchArtistData, a.id)
		}
	} else if !shouldLabel && a.flags.Has(FlagRenderLabel) {
		a.flags &^= FlagRenderLabel
		if a.flags.Has(FlagHasName) {
			emit(cmds, packed.CmdRemoveLabel, a.id)
			eng.labelCount--
		}
	}
}

func (eng *Engine) applyMusic(cur, projectedNext data.Vector, cmds *[]uint32) {
	if eng.playingIx >= 0 {
		threshold := eng.cfg.MaxMusicPlayDistance
		if eng.playingManual {
			threshold *= 2
		}
		playing := &eng.artists[eng.playingIx]
		if playing.position.Distance(projectedNext) > threshold {
			emit(cmds, packed.CmdStopMusic, playing.id)
			eng.markRecentlyPlayed(eng.playingIx)
			eng.playingIx = -1
		}
	}

	if eng.playingIx >= 0 {
		return
	}

	nearestIx := -1
	nearest := float32(math.Inf(1))
	for ix := range eng.artists {
		a := &eng.artists[ix]
		if a.flags.Has(FlagRecentlyPlayed) {
			continue
		}
		if d := a.position.Distance(cur); d <= eng.cfg.MaxMusicPlayDistance && d < nearest {
			nearest = d
			nearestIx = ix
		}
	}
	if nearestIx >= 0 {
		eng.playingIx = nearestIx
		eng.playingManual = false
		emit(cmds, packed.CmdStartMusic, eng.artists[nearestIx].id)
	}
}

// PlayArtist starts playback for the given artist regardless of distance.
// Any current playback stops without entering the recently-played set: it
// was superseded, not finished. Manually-started playback survives twice the
// usual auto-stop distance. Unknown ids are no-ops.
func (eng *Engine) PlayArtist(id uint32) []uint32 {
	ix, ok := eng.byID[id]
	if !ok {
		return nil
	}

	var cmds []uint32
	if eng.playingIx >= 0 {
		emit(&cmds, packed.CmdStopMusic, eng.artists[eng.playingIx].id)
	}
	eng.playingIx = ix
	eng.playingManual = true
	emit(&cmds, packed.CmdStartMusic, id)
	return cmds
}

func (eng *Engine) markRecentlyPlayed(ix int) {
	// An artist can stop twice while still in the FIFO (manual replay of
	// a recently-played artist that later auto-stops). A second slot
	// would shrink the effective cap, and evicting the first copy would
	// clear the flag while the second still sat in the queue.
	if eng.artists[ix].flags.Has(FlagRecentlyPlayed) {
		return
	}
	eng.artists[ix].flags |= FlagRecentlyPlayed
	eng.recentlyPlayed = append(eng.recentlyPlayed, ix)
	if len(eng.recentlyPlayed) > eng.cfg.RecentlyPlayedCap {
		evicted := eng.recentlyPlayed[0]
		eng.recentlyPlayed = eng.recentlyPlayed[1:]
		eng.artists[evicted].flags &^= FlagRecentlyPlayed
	}
}
