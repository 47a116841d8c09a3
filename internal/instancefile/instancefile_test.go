package instancefile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpdispatch/internal/opt"
)

const sample = `2 1 10 2 0.5
# demands
3 4
# request locations
0 0
1 0
2 0
1 1
2 1
`

func TestParse(t *testing.T) {
	inst, err := Parse(strings.NewReader(sample), "sample")
	require.NoError(t, err)
	assert.Equal(t, "sample", inst.Name)
	assert.Equal(t, 2, inst.NumRequests)
	assert.Equal(t, 1, inst.NumVehicles)
	assert.Equal(t, 10, inst.Capacity)
	assert.Equal(t, 2, inst.MinFulfilled)
	assert.InDelta(t, 0.5, inst.FairnessWeight, 1e-12)
	assert.Equal(t, 4, inst.Request(2).Demand)
	assert.Equal(t, 1, inst.Dist(opt.DepotIndex, 1))
	assert.Equal(t, 1, inst.Dist(2, 4))
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"short header":   "2 1 10 2\n",
		"bad rho":        "2 1 10 2 x\n",
		"demand count":   "2 1 10 2 0\n#\n3\n",
		"missing depot":  "2 1 10 2 0\n#\n3 4\n#\n",
		"bad coordinate": "1 1 10 1 0\n#\n3\n#\n0 0\n1 a\n2 2\n",
		"missing drop":   "1 1 10 1 0\n#\n3\n#\n0 0\n1 1\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			inst, err := Parse(strings.NewReader(text), "bad")
			assert.Nil(t, inst)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
			assert.Positive(t, pe.Line)
		})
	}
}

func TestParseRejectsInvalidInstance(t *testing.T) {
	text := "1 0 10 1 0\n#\n3\n#\n0 0\n1 1\n2 2\n"
	_, err := Parse(strings.NewReader(text), "novehicles")
	assert.ErrorIs(t, err, opt.ErrInvalidInstance)
}

func TestNameFromPath(t *testing.T) {
	assert.Equal(t, "inst_1", NameFromPath("instances/50/test/inst_1.txt"))
	assert.Equal(t, "inst_2", NameFromPath(`instances\50\test\inst_2.txt`))
	assert.Equal(t, "ab", NameFromPath("ab"))
}

func TestWriteInstanceParsesBack(t *testing.T) {
	raw, err := ParseRaw(strings.NewReader(sample), "sample")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteInstance(&buf, raw))
	again, err := ParseRaw(&buf, "sample")
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	inst, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", inst.Name)

	s, err := (&opt.Greedy{Inst: inst}).Construct()
	require.NoError(t, err)
	out := filepath.Join(dir, "solutions", "sample.sol")
	require.NoError(t, SaveSolution(out, inst, s))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	name, routes, err := ReadRoutes(f)
	require.NoError(t, err)
	assert.Equal(t, "sample", name)
	require.Len(t, routes, 1)
	assert.Equal(t, s.Routes[0], routes[0])
	assert.InDelta(t, s.TotalCost, inst.ObjectiveOf(routes), 1e-9)
}

func TestWriteSolutionPadsUnusedVehicles(t *testing.T) {
	text := strings.Replace(sample, "2 1 10 2 0.5", "2 3 10 2 0.5", 1)
	inst, err := Parse(strings.NewReader(text), "three")
	require.NoError(t, err)
	s := opt.NewSolution(inst)
	var buf bytes.Buffer
	require.NoError(t, WriteSolution(&buf, inst, s))
	assert.Equal(t, "three\n\n\n\n", buf.String())
}
