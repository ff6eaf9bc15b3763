package storage

import (
	"testing"

	"github.com/poiesic/hybridrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)},
		{"content-based ID", core.IDFromContent("藜麦的营养价值")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalIndexEntry(t *testing.T) {
	entry := &core.IndexEntry{
		Id:      core.IDFromContent("## 藜麦\n藜麦富含蛋白质。"),
		Content: "## 藜麦\n藜麦富含蛋白质。",
		Metadata: map[string]string{
			"Header1": "食材",
			"Header2": "藜麦",
			"Header3": "",
		},
		Vector: []float32{0.1, -0.5, 0.25, 1},
	}

	data := MarshalIndexEntry(entry)
	decoded, err := UnmarshalIndexEntry(data)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestUnmarshalIndexEntry_Truncated(t *testing.T) {
	entry := &core.IndexEntry{
		Id:      core.ID(7),
		Content: "some passage text",
		Vector:  []float32{1, 2, 3},
	}
	data := MarshalIndexEntry(entry)

	_, err := UnmarshalIndexEntry(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalMetric(t *testing.T) {
	data := MarshalMetric(core.MetricCosine)
	metric, err := UnmarshalMetric(data)
	require.NoError(t, err)
	assert.Equal(t, core.MetricCosine, metric)
}
