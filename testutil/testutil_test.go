package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(7).Records(20)
	b := NewGenerator(7).Records(20)
	require.Equal(t, a, b)

	c := NewGenerator(8).Records(20)
	require.NotEqual(t, a, c)
}

func TestRenderFASTA(t *testing.T) {
	recs := []Record{
		{ID: "a", Lines: []string{"SEQ1"}},
		{ID: "b", Description: "sample", Lines: []string{"SE", "Q2"}},
	}

	require.Equal(t, ">a\nSEQ1\n>b sample\nSE\nQ2\n", string(RenderFASTA(recs, "\n")))
	require.Equal(t, ">a\r\nSEQ1\r\n>b sample\r\nSE\r\nQ2\r\n", string(RenderFASTA(recs, "\r\n")))
}
