package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	out, err := execTsbench(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tsbench version v0.1.0")
	assert.Contains(t, out, "Go Version:")
	assert.Contains(t, out, "Platform:")
}
