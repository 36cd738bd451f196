package render_test

import (
	"testing"

	"github.com/amonks/galaxy/data"
	"github.com/amonks/galaxy/packed"
	"github.com/amonks/galaxy/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type command struct{ op, id uint32 }

func split(t *testing.T, cmds []uint32) []command {
	t.Helper()
	require.Equal(t, 0, len(cmds)%2, "command stream must be (opcode, id) pairs")
	out := make([]command, 0, len(cmds)/2)
	for i := 0; i < len(cmds); i += 2 {
		out = append(out, command{cmds[i], cmds[i+1]})
	}
	return out
}

func ops(t *testing.T, cmds []uint32, op uint32) []uint32 {
	t.Helper()
	var ids []uint32
	for _, c := range split(t, cmds) {
		if c.op == op {
			ids = append(ids, c.id)
		}
	}
	return ids
}

func testConfig() render.Config {
	cfg := render.DefaultConfig()
	cfg.Seed = 42
	return cfg
}

func TestUpdatePositionStaticViewer(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
		{ID: 2, Position: data.Vector{10, 0, 0}},
	}, testConfig())

	pos := data.Vector{5, 0, 0}
	first := eng.UpdatePosition(pos, pos)
	assert.NotEmpty(t, first)

	again := eng.UpdatePosition(data.Vector{5, 0, 0}, data.Vector{5, 0, 0})
	assert.Empty(t, again)
}

func TestLabelFetchThenName(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
	}, testConfig())

	// The artist has no name yet: approaching requests a fetch, not a
	// label.
	cmds := eng.UpdatePosition(data.Vector{1, 0, 0}, data.Vector{1, 0, 0})
	assert.Equal(t, []uint32{1}, ops(t, cmds, packed.CmdFetchArtistData))
	assert.Empty(t, ops(t, cmds, packed.CmdAddLabel))

	// Name arrival completes the pending label.
	cmds = eng.HandleArtistNames([]uint32{1}, data.Vector{1, 0, 0})
	assert.Equal(t, []uint32{1}, ops(t, cmds, packed.CmdAddLabel))

	// Retreating retracts it.
	far := data.Vector{5000, 0, 0}
	cmds = eng.UpdatePosition(far, far)
	assert.Equal(t, []uint32{1}, ops(t, cmds, packed.CmdRemoveLabel))
}

func TestNameArrivalAfterRetreatRetractsSilently(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
	}, testConfig())

	near := data.Vector{1, 0, 0}
	cmds := eng.UpdatePosition(near, near)
	require.Equal(t, []uint32{1}, ops(t, cmds, packed.CmdFetchArtistData))

	// The name arrives after the viewer has left: the pending label is
	// dropped without ever drawing.
	far := data.Vector{5000, 0, 0}
	cmds = eng.HandleArtistNames([]uint32{1}, far)
	assert.Empty(t, ops(t, cmds, packed.CmdAddLabel))
	assert.Empty(t, ops(t, cmds, packed.CmdRemoveLabel))
}

func TestRepeatedNameArrivalAddsLabelOnce(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
	}, testConfig())

	near := data.Vector{1, 0, 0}
	cmds := eng.UpdatePosition(near, near)
	require.Equal(t, []uint32{1}, ops(t, cmds, packed.CmdFetchArtistData))

	// A duplicate id in the same batch draws the label once.
	cmds = eng.HandleArtistNames([]uint32{1, 1}, near)
	assert.Equal(t, []uint32{1}, ops(t, cmds, packed.CmdAddLabel))

	// A second fetch response for the same artist is a no-op.
	cmds = eng.HandleArtistNames([]uint32{1}, near)
	assert.Empty(t, cmds)

	// The label counter matched the duplicate arrivals against one real
	// label: a single retreat fully retracts it.
	far := data.Vector{5000, 0, 0}
	cmds = eng.UpdatePosition(far, far)
	assert.Equal(t, []uint32{1}, ops(t, cmds, packed.CmdRemoveLabel))
}

func TestUnknownIDsSilentlySkipped(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
	}, testConfig())

	assert.Empty(t, eng.HandleArtistNames([]uint32{999}, data.Vector{0, 0, 0}))
	assert.Empty(t, eng.PlayArtist(999))
}

func TestMusicStartsOnApproach(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 7, Position: data.Vector{200, 0, 0}},
	}, testConfig())

	// 200 away: out of music range.
	cmds := eng.UpdatePosition(data.Vector{0, 0, 0}, data.Vector{0, 0, 0})
	assert.Empty(t, ops(t, cmds, packed.CmdStartMusic))

	// 50 away: in range, nothing playing, not recently played.
	cmds = eng.UpdatePosition(data.Vector{150, 0, 0}, data.Vector{150, 0, 0})
	assert.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStartMusic))
}

func TestMusicStopsAndEntersRecentlyPlayed(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 7, Position: data.Vector{0, 0, 0}},
	}, testConfig())

	cur := data.Vector{10, 0, 0}
	cmds := eng.UpdatePosition(cur, cur)
	require.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStartMusic))

	// Projected to leave the play radius: stop.
	cmds = eng.UpdatePosition(data.Vector{20, 0, 0}, data.Vector{400, 0, 0})
	assert.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStopMusic))

	// Back in range, but the artist is recently played: no restart.
	cmds = eng.UpdatePosition(data.Vector{10, 0, 0}, data.Vector{10, 0, 0})
	assert.Empty(t, ops(t, cmds, packed.CmdStartMusic))
}

func TestManualPlayDoublesStopThreshold(t *testing.T) {
	cfg := testConfig() // MaxMusicPlayDistance 60
	eng := render.NewEngine([]render.Artist{
		{ID: 7, Position: data.Vector{0, 0, 0}},
		{ID: 8, Position: data.Vector{30, 0, 0}},
	}, cfg)

	cmds := eng.PlayArtist(7)
	assert.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStartMusic))

	// 100 is past the auto threshold but inside the doubled manual one.
	cmds = eng.UpdatePosition(data.Vector{90, 0, 0}, data.Vector{100, 0, 0})
	assert.Empty(t, ops(t, cmds, packed.CmdStopMusic))

	cmds = eng.UpdatePosition(data.Vector{91, 0, 0}, data.Vector{300, 0, 0})
	assert.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStopMusic))
}

func TestManualReplayDoesNotDoubleEnterRecentlyPlayed(t *testing.T) {
	cfg := testConfig()
	cfg.RecentlyPlayedCap = 1
	eng := render.NewEngine([]render.Artist{
		{ID: 7, Position: data.Vector{0, 0, 0}},
	}, cfg)

	cur := data.Vector{10, 0, 0}
	cmds := eng.UpdatePosition(cur, cur)
	require.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStartMusic))

	// Auto-stop puts 7 in the recently-played FIFO.
	cmds = eng.UpdatePosition(data.Vector{20, 0, 0}, data.Vector{400, 0, 0})
	require.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStopMusic))

	// Manual replay of a recently-played artist, then another auto-stop.
	// 7 is already in the FIFO; stopping again must not take a second
	// slot, or evicting the first copy would clear the flag early.
	cmds = eng.PlayArtist(7)
	require.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStartMusic))
	cmds = eng.UpdatePosition(data.Vector{21, 0, 0}, data.Vector{400, 0, 0})
	require.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStopMusic))

	// Still recently played: approaching must not restart it.
	cmds = eng.UpdatePosition(data.Vector{10, 0, 0}, data.Vector{10, 0, 0})
	assert.Empty(t, ops(t, cmds, packed.CmdStartMusic))
}

func TestManualPlaySupersedesWithoutRecency(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 7, Position: data.Vector{0, 0, 0}},
		{ID: 8, Position: data.Vector{5, 0, 0}},
	}, testConfig())

	cur := data.Vector{1, 0, 0}
	cmds := eng.UpdatePosition(cur, cur)
	require.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStartMusic))

	// Manual play stops 7 but does not mark it recently played...
	cmds = eng.PlayArtist(8)
	assert.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStopMusic))
	assert.Equal(t, []uint32{8}, ops(t, cmds, packed.CmdStartMusic))

	// ...so when 8 stops by distance, 7 is immediately eligible again in
	// the same update.
	cmds = eng.UpdatePosition(data.Vector{2, 0, 0}, data.Vector{500, 0, 0})
	assert.Equal(t, []uint32{8}, ops(t, cmds, packed.CmdStopMusic))
	assert.Equal(t, []uint32{7}, ops(t, cmds, packed.CmdStartMusic))
}

func chunkFor(related [][]uint32) []byte {
	return packed.EncodeRelationshipChunk(related)
}

func TestRelationshipDedupe(t *testing.T) {
	cfg := testConfig()
	cfg.Quality = 40 // probability floor 1.0: every new pair commits
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
		{ID: 2, Position: data.Vector{5, 0, 0}},
	}, cfg)

	// Both directions of the same undirected edge arrive in one chunk;
	// it renders once.
	count, err := eng.HandleRelationshipChunk(0, 2, chunkFor([][]uint32{{2}, {1}}))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, eng.ConnectionCount())
}

func TestRelationshipSkipsUnknownArtists(t *testing.T) {
	cfg := testConfig()
	cfg.Quality = 40
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
		{ID: 2, Position: data.Vector{5, 0, 0}},
	}, cfg)

	// 777 is not in this session's loaded set; only the 1–2 edge lands.
	count, err := eng.HandleRelationshipChunk(0, 2, chunkFor([][]uint32{{777, 2}, nil}))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQualityChangeReplaysChunks(t *testing.T) {
	cfg := testConfig()
	cfg.Quality = 40
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
		{ID: 2, Position: data.Vector{5, 0, 0}},
		{ID: 3, Position: data.Vector{0, 5, 0}},
	}, cfg)

	count, err := eng.HandleRelationshipChunk(0, 3, chunkFor([][]uint32{{2, 3}, nil, nil}))
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Replaying at the same always-commit quality rebuilds the same
	// buffer from the retained chunks.
	assert.Equal(t, 2, eng.SetQuality(40))
	// A lower quality can only thin it out.
	assert.LessOrEqual(t, eng.SetQuality(0), 2)
}

func TestHighlightForcesGeometry(t *testing.T) {
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
		{ID: 2, Position: data.Vector{5000, 0, 0}},
	}, testConfig())

	cur := data.Vector{0, 0, 0}
	eng.UpdatePosition(cur, cur)

	// 2 is far beyond the geometry budget; highlighting forces it in.
	cmds := eng.SetHighlighted([]uint32{2}, cur)
	assert.Contains(t, ops(t, cmds, packed.CmdAddGeometry), uint32(2))
	// Supplementary label placement wants 2's name.
	assert.Contains(t, ops(t, cmds, packed.CmdFetchArtistData), uint32(2))

	// Clearing the highlight retracts geometry it alone justified.
	cmds = eng.SetHighlighted(nil, cur)
	assert.Contains(t, ops(t, cmds, packed.CmdRemoveGeometry), uint32(2))
}

func TestFlyThroughClearsRegularLabels(t *testing.T) {
	cfg := testConfig()
	cfg.AlwaysShown = []uint32{3}
	eng := render.NewEngine([]render.Artist{
		{ID: 1, Position: data.Vector{0, 0, 0}},
		{ID: 3, Position: data.Vector{3000, 0, 0}},
	}, cfg)

	cur := data.Vector{1, 0, 0}
	eng.UpdatePosition(cur, cur)
	eng.HandleArtistNames([]uint32{1, 3}, cur)

	cmds := eng.SetFlyThrough(true)
	assert.Equal(t, []uint32{1}, ops(t, cmds, packed.CmdRemoveLabel))
	assert.Equal(t, []uint32{3}, ops(t, cmds, packed.CmdAddLabel))

	// While flying, the regular label policy stays off even up close.
	cmds = eng.UpdatePosition(data.Vector{2, 0, 0}, data.Vector{2, 0, 0})
	assert.Empty(t, ops(t, cmds, packed.CmdAddLabel))

	assert.Empty(t, eng.SetFlyThrough(true))
}
