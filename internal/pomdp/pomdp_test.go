package pomdp

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/catchgen/internal/agents"
	"github.com/talgya/catchgen/internal/engine"
	"github.com/talgya/catchgen/internal/world"
)

var defaultLabels = []string{"wp", "wa"}

func newEmitter(t *testing.T, rows, cols, catchers, wumpi int, actions []agents.Action, labels []string) *Emitter {
	t.Helper()
	g, err := world.NewGrid(rows, cols)
	require.NoError(t, err)
	roster := agents.NewCatchRoster(g, catchers, wumpi, 0.8, actions)
	table, err := engine.BuildTable(roster)
	require.NoError(t, err)
	comp, err := engine.NewComposer(roster, table)
	require.NoError(t, err)
	e, err := NewEmitter(Header{
		Discount:          0.95,
		Cells:             g.Cells(),
		Observers:         catchers,
		ObservationLabels: labels,
	}, roster, comp)
	require.NoError(t, err)
	return e
}

func emit(t *testing.T, e *Emitter) (string, Stats) {
	t.Helper()
	var buf bytes.Buffer
	stats, err := e.Write(&buf)
	require.NoError(t, err)
	return buf.String(), stats
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		0:                   "0.0",
		1:                   "1.0",
		0.95:                "0.95",
		0.25:                "0.25",
		0.6400000000000001:  "0.64",
		0.09999999999999998: "0.1",
		0.07999999999999999: "0.08",
		1e-05:               "1e-05",
		0.111112:            "0.111112",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatFloat(in), "%v", in)
	}
}

func TestStartBelief(t *testing.T) {
	start := StartBelief(3, 9)
	require.Len(t, start, 9)
	assert.Equal(t, 0.333333, start[0])
	assert.Equal(t, 0.333333, start[1])
	assert.InDelta(t, 0.333334, start[2], 1e-12)
	for _, p := range start[3:] {
		assert.Zero(t, p)
	}
	assert.InDelta(t, 1.0, sumOf(start), 1e-12)
}

func TestVectorToken(t *testing.T) {
	assert.Equal(t, "_0_3", VectorToken([]int{0, 3}, nil))
	assert.Equal(t, "_wa_wp", VectorToken([]int{1, 0}, defaultLabels))
	assert.Equal(t, "", VectorToken(nil, nil))
}

func TestWriteTwoByTwoTwoCatchers(t *testing.T) {
	e := newEmitter(t, 2, 2, 2, 0, []agents.Action{agents.ActionNorth}, defaultLabels)
	out, stats := emit(t, e)

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 8)
	assert.Equal(t, "discount: 0.95", lines[0])
	assert.Equal(t, "values: reward", lines[1])
	assert.Equal(t, "states: _0_0 _0_1 _0_2 _0_3 _1_0 _1_1 _1_2 _1_3 "+
		"_2_0 _2_1 _2_2 _2_3 _3_0 _3_1 _3_2 _3_3 ", lines[2])
	assert.Equal(t, "actions: _N_N ", lines[3])
	assert.Equal(t, "observations: _wp_wp _wp_wa _wa_wp _wa_wa ", lines[4])
	assert.Equal(t, "start: ", lines[5])
	assert.Equal(t, "0.25 0.25 0.25 0.25 0 0 0 0 0 0 0 0 0 0 0 0 ", lines[6])
	assert.Equal(t, "T: * : * : * : 0.0", lines[7])
	assert.Equal(t, "T: _N_N : _0_0 : _2_2 : 0.64", lines[8])
	assert.Equal(t, "T: _N_N : _0_0 : _2_0 : 0.08", lines[9])
	assert.True(t, strings.HasSuffix(out, "\n"))

	// Per position a catcher issuing N reaches 3, 3, 2 and 2 cells.
	assert.Equal(t, Stats{
		States:       16,
		Actions:      1,
		Observations: 4,
		Transitions:  (3 + 3 + 2 + 2) * (3 + 3 + 2 + 2),
		Bytes:        int64(len(out)),
	}, stats)
}

func TestWriteFourLabelVocabulary(t *testing.T) {
	e := newEmitter(t, 2, 2, 2, 0, []agents.Action{agents.ActionNorth}, []string{"a", "b", "c", "d"})
	states, actions, observations := e.Cardinalities()
	assert.Equal(t, 16, states)
	assert.Equal(t, 1, actions)
	assert.Equal(t, 16, observations)
}

func TestWrittenFileParsesAndValidates(t *testing.T) {
	tests := []struct {
		name                       string
		rows, cols, catchers, wump int
		actions                    []agents.Action
	}{
		{"reduced actions", 2, 2, 2, 0, []agents.Action{agents.ActionNorth}},
		{"full actions", 2, 2, 2, 0, agents.AllActions},
		{"with wumpus", 2, 3, 1, 1, agents.AllActions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEmitter(t, tt.rows, tt.cols, tt.catchers, tt.wump, tt.actions, defaultLabels)
			out, stats := emit(t, e)

			m, err := Parse(strings.NewReader(out))
			require.NoError(t, err)
			require.NoError(t, m.Validate(1e-9))

			assert.Equal(t, 0.95, m.Discount)
			assert.Equal(t, "reward", m.Values)
			assert.Len(t, m.States, stats.States)
			assert.Len(t, m.Actions, stats.Actions)
			assert.Len(t, m.Observations, stats.Observations)
			assert.Len(t, m.Transitions, stats.Transitions)
			assert.Equal(t, 0.0, m.Default)
		})
	}
}

func TestWriteWumpusActionTokens(t *testing.T) {
	e := newEmitter(t, 2, 2, 1, 1, agents.AllActions, defaultLabels)
	out, _ := emit(t, e)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "actions: _N_0 _S_0 _E_0 _W_0 _T_0 ", lines[3])
	assert.Equal(t, "observations: _wp _wa ", lines[4])
}

// row returns the next-state distribution listed for action a in state s.
func row(m *Model, a, s int) map[int]float64 {
	r := make(map[int]float64)
	for k, p := range m.Transitions {
		if k.Action == a && k.State == s {
			r[k.Next] += p
		}
	}
	return r
}

func TestWriteTagRowsAreDeterministic(t *testing.T) {
	e := newEmitter(t, 2, 2, 2, 0, []agents.Action{agents.ActionTag}, defaultLabels)
	out, _ := emit(t, e)
	m, err := Parse(strings.NewReader(out))
	require.NoError(t, err)
	for s := range m.States {
		assert.Equal(t, map[int]float64{s: 1}, row(m, 0, s))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWritePropagatesWriterError(t *testing.T) {
	e := newEmitter(t, 2, 2, 2, 0, agents.AllActions, defaultLabels)
	_, err := e.Write(failingWriter{})
	assert.Error(t, err)
}

func TestNewEmitterRejectsBadHeader(t *testing.T) {
	g, err := world.NewGrid(2, 2)
	require.NoError(t, err)
	roster := agents.NewCatchRoster(g, 1, 0, 0.8, agents.AllActions)
	table, err := engine.BuildTable(roster)
	require.NoError(t, err)
	comp, err := engine.NewComposer(roster, table)
	require.NoError(t, err)

	bad := []Header{
		{Discount: 0.95, Cells: 0, Observers: 1, ObservationLabels: defaultLabels},
		{Discount: 0.95, Cells: 4, Observers: 0, ObservationLabels: defaultLabels},
		{Discount: 0.95, Cells: 4, Observers: 2, ObservationLabels: defaultLabels},
		{Discount: 0.95, Cells: 4, Observers: 1},
		{Discount: 1.5, Cells: 4, Observers: 1, ObservationLabels: defaultLabels},
		{Discount: 0.95, Cells: 9, Observers: 1, ObservationLabels: defaultLabels},
	}
	for _, h := range bad {
		_, err := NewEmitter(h, roster, comp)
		assert.ErrorIs(t, err, ErrHeader, "%+v", h)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	tests := map[string]string{
		"no colon":       "discount 0.95\n",
		"bad discount":   "discount: zero\n",
		"unknown action": "states: _0\nactions: _N\nT: _S : _0 : _0 : 1.0\n",
		"unknown state":  "states: _0\nactions: _N\nT: _N : _0 : _9 : 1.0\n",
		"short T":        "states: _0\nactions: _N\nT: _N : _0 : 1.0\n",
		"bad start":      "states: _0\nstart: \nhalf\n",
		"unknown key":    "rewards: 1\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestValidateCatchesLeakyRow(t *testing.T) {
	in := strings.Join([]string{
		"discount: 0.9",
		"values: reward",
		"states: _0 _1 ",
		"actions: _N ",
		"observations: _wp ",
		"start: ",
		"1.0 0 ",
		"T: * : * : * : 0.0",
		"T: _N : _0 : _1 : 1.0",
		"T: _N : _1 : _1 : 0.5",
		"",
	}, "\n")
	m, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.ErrorIs(t, m.Validate(1e-9), ErrInvalid)

	m.Transitions[TransitionKey{Action: 0, State: 1, Next: 0}] = 0.5
	assert.NoError(t, m.Validate(1e-9))
}
