package remote

import (
	"encoding/json"
	"testing"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
	"github.com/alexanderramin/weekgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_PayloadIsJSONString(t *testing.T) {
	s := testutil.NewTestState(
		testutil.WithTasks(testutil.NewTestTask("Inspect")),
		testutil.WithLastModified(1700000000000),
	)
	env, err := Encode(s.Serializable(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), env.LastModified)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.IsType(t, "", wire["payload"])
	assert.Equal(t, "dev-1", wire["deviceId"])
	assert.NotContains(t, wire, "updatedAt", "the service stamps updatedAt")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.Payload), &payload))
	assert.Equal(t, float64(domain.SchemaVersion), payload["version"])
}

func TestEnvelope_StateRoundTrip(t *testing.T) {
	s := testutil.NewTestState(
		testutil.WithLocations("Site A"),
		testutil.WithTasks(testutil.NewTestTask("Inspect", testutil.WithTaskLocation(1))),
		testutil.WithLastModified(42),
	)
	env, err := Encode(s.Serializable(), "")
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))

	raw, last, err := decoded.State()
	require.NoError(t, err)
	assert.Equal(t, int64(42), last)
	assert.Equal(t, s, normalize.Normalize(raw))
}

func TestEnvelope_DecodesLegacyDocument(t *testing.T) {
	legacy := `{"tasks":[{"id":3,"name":"Old"}],"assignments":[[[3]]],"lastModified":77,"updatedAt":90}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(legacy), &env))
	require.NotNil(t, env.Legacy)
	assert.Equal(t, int64(90), env.UpdatedAt)

	raw, last, err := env.State()
	require.NoError(t, err)
	assert.Equal(t, int64(77), last)

	s := normalize.Normalize(raw)
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, "Old", s.Tasks[0].Name)
	assert.Equal(t, 3, s.Assignments[0][0][0].TaskID)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, legacy, string(data), "legacy documents are served back unchanged")
}

func TestEnvelope_TimestampComesFromPayload(t *testing.T) {
	env := Envelope{Payload: `{"lastModified":5}`, LastModified: 999}
	_, last, err := env.State()
	require.NoError(t, err)
	assert.Equal(t, int64(5), last)

	env = Envelope{Payload: `{"tasks":[]}`}
	_, last, err = env.State()
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestEnvelope_MalformedPayload(t *testing.T) {
	_, _, err := Envelope{Payload: `{not json`}.State()
	assert.ErrorIs(t, err, ErrMalformed)

	raw, last, err := Envelope{Payload: `null`}.State()
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Zero(t, last)

	var env Envelope
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &env))
	assert.ErrorIs(t, json.Unmarshal([]byte(`null`), &env), ErrMalformed)
}
