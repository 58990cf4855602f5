package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTrip(t *testing.T) {
	actor := int64(4)
	env, err := NewEnvelope(&ActorRef{UserID: 4}, NotificationRequestedPayload{
		NotifyType: "comment",
		ActorID:    &actor,
		UserIDs:    []int64{1, 2},
		Target:     TargetPayload{Type: "Comment", ID: 9},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, id, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, env.EventID, id.String())

	var payload NotificationRequestedPayload
	require.NoError(t, json.Unmarshal(decoded.Data, &payload))
	require.Equal(t, []int64{1, 2}, payload.UserIDs)
	require.Equal(t, "Comment", payload.Target.Type)
}

func TestDecodeRejects(t *testing.T) {
	_, _, err := Decode([]byte("{"))
	require.Error(t, err)

	_, _, err = Decode([]byte(`{"version":2,"eventId":"` + "0b8e5c1e-8f3a-4b8e-9c1a-2f1e0c9d8b7a" + `"}`))
	require.True(t, errors.Is(err, ErrUnsupportedVersion))

	_, _, err = Decode([]byte(`{"version":1,"eventId":"nope"}`))
	require.ErrorContains(t, err, "invalid event id")
}
