package render

import (
	"math"

	"github.com/amonks/galaxy/data"
	"github.com/amonks/galaxy/packed"
)

func (eng *Engine) shouldRenderGeometry(a *artistState, d float32) bool {
	if d < eng.cfg.GeometryNearDistance {
		return true
	}
	if a.flags.Has(FlagHighlighted) {
		return true
	}
	pop := float32(a.popularity)
	return d-pop*pop*pop*eng.cfg.GeometryPopularityWeight < eng.cfg.GeometryBudget
}

func (eng *Engine) shouldRenderLabel(ix int, d float32) bool {
	if eng.flyThrough {
		// Only the curated and highlight-driven labels show in
		// fly-through mode; regular labels are off.
		return eng.isAlwaysShown(ix) || eng.isHighlightLabel(ix)
	}

	a := &eng.artists[ix]
	if d < eng.cfg.LabelNearDistance {
		return true
	}

	pop := float32(a.popularity)
	density := eng.cfg.LabelDensityWeight * float32(math.Pow(float64(eng.labelCount), 1.5))
	score := d - pop*pop*eng.cfg.LabelPopularityWeight + density
	if a.flags.Has(FlagHighlighted) {
		score /= 2
	}
	return score < eng.cfg.LabelBudget
}

func (eng *Engine) isAlwaysShown(ix int) bool {
	id := eng.artists[ix].id
	for _, shown := range eng.cfg.AlwaysShown {
		if shown == id {
			return true
		}
	}
	return false
}

func (eng *Engine) isHighlightLabel(ix int) bool {
	for _, l := range eng.highlightLabels {
		if l == ix {
			return true
		}
	}
	return false
}

// HandleArtistNames records that the given artists' names have arrived. An
// artist whose label was requested by an earlier position update (and which
// the label policy still approves at the current position) gets its label
// now; one that drifted out of approval in the meantime has the pending flag
// retracted without drawing anything. Only the first arrival for an artist
// counts: repeated fetch responses (or duplicate ids in a batch) must not
// redraw a label that is already up, or the rendered-label counter would
// double-count it and skew density scoring for the rest of the session.
func (eng *Engine) HandleArtistNames(ids []uint32, cur data.Vector) []uint32 {
	var cmds []uint32
	for _, id := range ids {
		ix, ok := eng.byID[id]
		if !ok {
			continue
		}
		a := &eng.artists[ix]
		if a.flags.Has(FlagHasName) {
			continue
		}
		a.flags |= FlagHasName

		if !a.flags.Has(FlagRenderLabel) {
			continue
		}
		if eng.shouldRenderLabel(ix, a.position.Distance(cur)) {
			emit(&cmds, packed.CmdAddLabel, id)
			eng.labelCount++
		} else {
			a.flags &^= FlagRenderLabel
		}
	}
	return cmds
}

// SetHighlighted replaces the highlighted set. Highlighting forces geometry
// visibility; outside fly-through mode it also places supplementary labels:
// up to HighlightLabelCount spread apart from existing labels by
// farthest-point selection, plus up to ExtraHighlightLabels random picks
// meeting the minimum separation. Unknown ids are skipped.
func (eng *Engine) SetHighlighted(ids []uint32, cur data.Vector) []uint32 {
	var cmds []uint32

	for _, ix := range eng.highlighted {
		a := &eng.artists[ix]
		a.flags &^= FlagHighlighted
		d := a.position.Distance(cur)
		if a.flags.Has(FlagRenderGeometry) && !eng.shouldRenderGeometry(a, d) {
			a.flags &^= FlagRenderGeometry
			emit(&cmds, packed.CmdRemoveGeometry, a.id)
		}
	}
	for _, ix := range eng.highlightLabels {
		a := &eng.artists[ix]
		if a.flags.Has(FlagRenderLabel) && !eng.shouldRenderLabel(ix, a.position.Distance(cur)) {
			a.flags &^= FlagRenderLabel
			if a.flags.Has(FlagHasName) {
				emit(&cmds, packed.CmdRemoveLabel, a.id)
				eng.labelCount--
			}
		}
	}
	eng.highlighted = eng.highlighted[:0]
	eng.highlightLabels = eng.highlightLabels[:0]

	for _, id := range ids {
		ix, ok := eng.byID[id]
		if !ok {
			continue
		}
		eng.highlighted = append(eng.highlighted, ix)
		a := &eng.artists[ix]
		a.flags |= FlagHighlighted
		if !a.flags.Has(FlagRenderGeometry) {
			a.flags |= FlagRenderGeometry
			emit(&cmds, packed.CmdAddGeometry, a.id)
		}
	}

	if !eng.flyThrough {
		eng.placeHighlightLabels(&cmds)
	}

	return cmds
}

// placeHighlightLabels picks supplementary labels from the highlighted set
// and draws them.
func (eng *Engine) placeHighlightLabels(cmds *[]uint32) {
	placed := eng.labeledPositions()

	// Farthest-point selection: each pick maximizes its minimum distance
	// to every label placed so far, spreading labels across the
	// highlighted region instead of clustering them.
	chosen := make(map[int]bool)
	for len(chosen) < eng.cfg.HighlightLabelCount {
		bestIx := -1
		best := float32(-1)
		for _, ix := range eng.highlighted {
			if chosen[ix] || eng.artists[ix].flags.Has(FlagRenderLabel) {
				continue
			}
			d := minDistance(eng.artists[ix].position, placed)
			if d > best {
				best = d
				bestIx = ix
			}
		}
		if bestIx < 0 {
			break
		}
		chosen[bestIx] = true
		placed = append(placed, eng.artists[bestIx].position)
		eng.addHighlightLabel(bestIx, cmds)
	}

	extras := 0
	for _, i := range eng.rng.Perm(len(eng.highlighted)) {
		if extras >= eng.cfg.ExtraHighlightLabels {
			break
		}
		ix := eng.highlighted[i]
		if chosen[ix] || eng.artists[ix].flags.Has(FlagRenderLabel) {
			continue
		}
		if minDistance(eng.artists[ix].position, placed) < eng.cfg.MinHighlightLabelSeparation {
			continue
		}
		chosen[ix] = true
		placed = append(placed, eng.artists[ix].position)
		eng.addHighlightLabel(ix, cmds)
		extras++
	}
}

func (eng *Engine) addHighlightLabel(ix int, cmds *[]uint32) {
	eng.highlightLabels = append(eng.highlightLabels, ix)
	a := &eng.artists[ix]
	a.flags |= FlagRenderLabel
	if a.flags.Has(FlagHasName) {
		emit(cmds, packed.CmdAddLabel, a.id)
		eng.labelCount++
	} else {
		emit(cmds, packed.CmdFetchArtistData, a.id)
	}
}

func (eng *Engine) labeledPositions() []data.Vector {
	var positions []data.Vector
	for ix := range eng.artists {
		if eng.artists[ix].flags.Has(FlagRenderLabel) {
			positions = append(positions, eng.artists[ix].position)
		}
	}
	return positions
}

func minDistance(p data.Vector, among []data.Vector) float32 {
	min := float32(math.Inf(1))
	for _, q := range among {
		if d := p.Distance(q); d < min {
			min = d
		}
	}
	return min
}

// SetFlyThrough switches between orbit and fly-through modes. Regular labels
// clear on any transition; the curated always-shown set redraws, and in
// orbit mode the highlight-driven supplementary labels are re-placed.
func (eng *Engine) SetFlyThrough(enabled bool) []uint32 {
	if enabled == eng.flyThrough {
		return nil
	}

	var cmds []uint32
	for ix := range eng.artists {
		a := &eng.artists[ix]
		if !a.flags.Has(FlagRenderLabel) {
			continue
		}
		a.flags &^= FlagRenderLabel
		if a.flags.Has(FlagHasName) {
			emit(&cmds, packed.CmdRemoveLabel, a.id)
			eng.labelCount--
		}
	}
	eng.highlightLabels = eng.highlightLabels[:0]

	eng.flyThrough = enabled

	for _, id := range eng.cfg.AlwaysShown {
		ix, ok := eng.byID[id]
		if !ok {
			continue
		}
		a := &eng.artists[ix]
		a.flags |= FlagRenderLabel
		if a.flags.Has(FlagHasName) {
			emit(&cmds, packed.CmdAddLabel, id)
			eng.labelCount++
		} else {
			emit(&cmds, packed.CmdFetchArtistData, id)
		}
	}

	if !enabled && len(eng.highlighted) > 0 {
		eng.placeHighlightLabels(&cmds)
	}

	return cmds
}
