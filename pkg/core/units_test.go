package core_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/boxpad/pkg/core"
)

func TestPixels(t *testing.T) {
	cases := map[string]core.Pixels{
		`220`:     220,
		`12.5`:    12.5,
		`"220px"`: 220,
		`" 40px"`: 40,
		`"7"`:     7,
		`""`:      0,
		`null`:    0,
	}
	for in, want := range cases {
		var p core.Pixels
		require.NoError(t, json.Unmarshal([]byte(in), &p), in)
		assert.Equal(t, want, p, in)
	}

	var p core.Pixels
	assert.Error(t, json.Unmarshal([]byte(`"wide"`), &p))
	assert.Error(t, json.Unmarshal([]byte(`true`), &p))

	out, err := json.Marshal(core.Pixels(220))
	require.NoError(t, err)
	assert.Equal(t, "220", string(out))
}

func TestTimestamp(t *testing.T) {
	at := core.At(time.Date(2024, 3, 5, 10, 0, 0, 123456789, time.UTC))

	data, err := json.Marshal(at)
	require.NoError(t, err)
	assert.Equal(t, "1709632800123", string(data))

	var back core.Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, at, back)

	zero, err := json.Marshal(core.Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "0", string(zero))

	require.NoError(t, json.Unmarshal([]byte("0"), &back))
	assert.True(t, back.IsZero())
	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.True(t, back.IsZero())
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]core.Variant{
		"":          core.VariantFreeform,
		"note":      core.VariantFreeform,
		"Freeform":  core.VariantFreeform,
		"rect":      core.VariantRectangle,
		"rectangle": core.VariantRectangle,
		" pad ":     core.VariantNotepad,
	} {
		got, err := core.ParseVariant(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := core.ParseVariant("circle")
	assert.ErrorIs(t, err, core.ErrUnknownVariant)
	assert.True(t, core.VariantNotepad.FullWidth())
	assert.False(t, core.VariantFreeform.FullWidth())
}

func TestValidColor(t *testing.T) {
	assert.True(t, core.ValidColor("#FFFBE6"))
	assert.True(t, core.ValidColor("#e9d5ff"))
	assert.False(t, core.ValidColor("#000000"))
	assert.False(t, core.ValidColor(""))
}

func TestSnapshotClone(t *testing.T) {
	s := core.Snapshot{ID: "s", Notes: []core.Note{{ID: "a", Content: "x"}}}
	c := s.Clone()
	c.Notes[0].Content = "y"
	assert.Equal(t, "x", s.Notes[0].Content)

	assert.NotNil(t, core.CloneNotes(nil))
	assert.Equal(t, 1, core.FirstRectangle([]core.Note{{Type: core.VariantFreeform}, {Type: core.VariantRectangle}}))
	assert.Equal(t, -1, core.FirstRectangle(nil))
}
