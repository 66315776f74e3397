package rel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexLTMembership(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i", "j"}, []string{"i'", "j'"})
	lex, err := LexLT(sp, []string{"i'", "j'"}, []string{"i", "j"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		point map[string]int64
		want  bool
	}{
		{name: "outer strictly earlier", point: map[string]int64{"i": 3, "j": 0, "i'": 2, "j'": 9}, want: true},
		{name: "outer equal inner earlier", point: map[string]int64{"i": 2, "j": 3, "i'": 2, "j'": 2}, want: true},
		{name: "identical instance", point: map[string]int64{"i": 2, "j": 3, "i'": 2, "j'": 3}, want: false},
		{name: "outer equal inner later", point: map[string]int64{"i": 2, "j": 3, "i'": 2, "j'": 4}, want: false},
		{name: "outer later", point: map[string]int64{"i": 2, "j": 3, "i'": 3, "j'": 0}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contains(t, lex, tt.point))
		})
	}
}

func TestLexLTZeroPositions(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	lex, err := LexLT(sp, nil, nil)
	require.NoError(t, err)
	assert.True(t, lex.IsEmpty())
}

func TestLexLTErrors(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})

	_, err := LexLT(sp, []string{"i'"}, []string{"i", "i'"})
	assert.ErrorIs(t, err, ErrArityMismatch)

	_, err = LexLT(sp, []string{"k"}, []string{"i"})
	assert.ErrorIs(t, err, ErrUnknownDim)
}

func TestAllEqual(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i", "j"}, []string{"i'", "j'"})
	eq, err := AllEqual(sp, []string{"i'", "j'"}, []string{"i", "j"})
	require.NoError(t, err)

	assert.True(t, contains(t, eq, map[string]int64{"i": 2, "j": 3, "i'": 2, "j'": 3}))
	assert.False(t, contains(t, eq, map[string]int64{"i": 2, "j": 3, "i'": 2, "j'": 4}))

	universe, err := AllEqual(sp, nil, nil)
	require.NoError(t, err)
	got, err := universe.IsEqual(UniverseMap(sp))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestIdentityRequiresMatchingArity(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"a", "b"})
	_, err := Identity(sp)
	assert.ErrorIs(t, err, ErrArityMismatch)
}
