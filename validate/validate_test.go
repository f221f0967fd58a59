package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextAcceptsPlainString(t *testing.T) {
	require.NoError(t, Text("hello, this is a normal agent response.", 0))
}

func TestTextRejectsOversized(t *testing.T) {
	big := strings.Repeat("a", 100)
	err := Text(big, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestTextRejectsBidiOverride(t *testing.T) {
	err := Text("safe‮evil", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "U+202E")
}

func TestTextRejectsBidiIsolate(t *testing.T) {
	require.Error(t, Text("before⁦after", 0))
}

func TestTextRejectsZeroWidth(t *testing.T) {
	require.Error(t, Text("in​visible", 0))
}

func TestTextRejectsBOM(t *testing.T) {
	require.Error(t, Text("﻿text", 0))
}

func TestTextDefaultMaxBytes(t *testing.T) {
	s := strings.Repeat("x", DefaultMaxBytes+1)
	require.Error(t, Text(s, 0))
}
