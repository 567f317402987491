package fixture_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cflow/cfg"
	"cflow/fixture"
)

const s5YAML = `
program:
  - while:
      cond: c1
      body:
        - if:
            cond: c2
            then:
              - break: {}
        - mutation: m1
  - mutation: m2
`

func TestBuildS5MatchesDirectBuilder(t *testing.T) {
	root, err := fixture.Build(context.Background(), []byte(s5YAML))
	require.NoError(t, err)

	prog, err := cfg.Lower(context.Background(), root)
	require.NoError(t, err)

	br1, ok := prog.Entry.(*cfg.BranchBlock[string, string])
	require.True(t, ok)
	assert.Equal(t, "c1", br1.Cond)

	br2, ok := br1.True.(*cfg.BranchBlock[string, string])
	require.True(t, ok)
	assert.Equal(t, "c2", br2.Cond)

	bbExit, ok := br2.True.(*cfg.BasicBlock[string, string])
	require.True(t, ok)
	assert.Equal(t, []string{"m2"}, bbExit.Mutations)
	assert.Same(t, bbExit, br1.False)
}

const labelledYAML = `
program:
  - while:
      cond: c1
      label: outer
      body:
        - while:
            cond: c2
            body:
              - continue: {loop: outer}
`

func TestBuildResolvesLabelReference(t *testing.T) {
	root, err := fixture.Build(context.Background(), []byte(labelledYAML))
	require.NoError(t, err)

	prog, err := cfg.Lower(context.Background(), root)
	require.NoError(t, err)

	br1, ok := prog.Entry.(*cfg.BranchBlock[string, string])
	require.True(t, ok)

	br2, ok := br1.True.(*cfg.BranchBlock[string, string])
	require.True(t, ok)
	assert.Same(t, br1, br2.True)
}

func TestBuildRejectsUnresolvedLabel(t *testing.T) {
	root, err := fixture.Build(context.Background(), []byte(`
program:
  - while:
      cond: c
      body:
        - break: {loop: nope}
`))

	assert.Nil(t, root)
	require.Error(t, err)
}

func TestBuildIfElse(t *testing.T) {
	root, err := fixture.Build(context.Background(), []byte(`
program:
  - if:
      cond: c
      then:
        - mutation: m1
      else:
        - mutation: m2
`))
	require.NoError(t, err)

	prog, err := cfg.Lower(context.Background(), root)
	require.NoError(t, err)

	br, ok := prog.Entry.(*cfg.BranchBlock[string, string])
	require.True(t, ok)

	bb1, ok := br.True.(*cfg.BasicBlock[string, string])
	require.True(t, ok)
	assert.Equal(t, []string{"m1"}, bb1.Mutations)

	bb2, ok := br.False.(*cfg.BasicBlock[string, string])
	require.True(t, ok)
	assert.Equal(t, []string{"m2"}, bb2.Mutations)
}
