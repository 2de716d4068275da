package livetiming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_UnmarshalObject(t *testing.T) {
	var record Record
	require.NoError(t, json.Unmarshal([]byte(`{"DriverNo":"44","rpm":11000}`), &record))

	assert.True(t, record.IsMapping())

	driverNo, ok := record.Field("DriverNo")
	require.True(t, ok)
	assert.Equal(t, "44", driverNo)

	// Numbers stay exact
	rpm, ok := record.Field("rpm")
	require.True(t, ok)
	assert.Equal(t, json.Number("11000"), rpm)
}

func TestRecord_UnmarshalRaw(t *testing.T) {
	// Compressed topics deliver base64 strings instead of objects
	var record Record
	require.NoError(t, json.Unmarshal([]byte(`"7ZWZkZjpX..."`), &record))

	assert.False(t, record.IsMapping())
	_, ok := record.Field("DriverNo")
	assert.False(t, ok)
	assert.Nil(t, record.Fields())
}

func TestRecord_MarshalRoundTrip(t *testing.T) {
	original := []byte(`{"DriverNo":"44","drs":12}`)
	var record Record
	require.NoError(t, json.Unmarshal(original, &record))

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, string(original), string(data))
}

func TestRecord_MarshalRawVerbatim(t *testing.T) {
	record := NewRawRecord(json.RawMessage(`"opaque-payload"`))
	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Equal(t, `"opaque-payload"`, string(data))
}

func TestRecord_Preview(t *testing.T) {
	record := NewFieldsRecord(map[string]any{"DriverNo": "44"})
	preview := record.Preview(200)
	assert.Equal(t, `{"DriverNo":"44"}`, preview)

	truncated := record.Preview(5)
	assert.Equal(t, `{"Dri...`, truncated)
}

func TestBatch_RecordCount(t *testing.T) {
	batch := Batch{
		"CarData.z":   {NewFieldsRecord(map[string]any{"DriverNo": "44"}), NewFieldsRecord(map[string]any{"DriverNo": "1"})},
		"TrackStatus": {NewFieldsRecord(map[string]any{"Status": "1"})},
	}
	assert.Equal(t, 3, batch.RecordCount())
	assert.Equal(t, 0, Batch{}.RecordCount())
}
