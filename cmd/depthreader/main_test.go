package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shm-depth-go/market"
	"shm-depth-go/sim"
)

func TestDumpSkipsEmptySlots(t *testing.T) {
	var s market.DepthSnapshot
	sim.Fill(&s, 10050, 42, 300, 200)

	buf := make([]byte, 0, 3*market.RecordSize+10)
	buf = append(buf, make([]byte, market.RecordSize)...)
	buf = market.AppendEncode(buf, s)
	buf = append(buf, make([]byte, market.RecordSize+10)...)

	var out bytes.Buffer
	require.NoError(t, dump(context.Background(), &out, buf, 2, 2))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, float64(1), got["seq"])
	assert.Equal(t, "100.5", got["price"])
	assert.Equal(t, "100.5", got["bestBid"])
	assert.Equal(t, "100.51", got["bestAsk"])
	assert.Equal(t, "0.01", got["spread"])
	assert.Equal(t, "100.505", got["mid"])
	assert.Equal(t, float64(42), got["timestamp"])
}

func TestDumpEmptyBuffer(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, dump(context.Background(), &out, make([]byte, 100), 1, 0))
	assert.Empty(t, out.String())
}
