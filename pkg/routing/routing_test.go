package routing_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdocs/notifier/pkg/routing"
)

func TestKey_Channel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  routing.Key
		want string
	}{
		{
			name: "all accounts",
			key:  routing.AllKey(),
			want: "notifications:all",
		},
		{
			name: "single account",
			key:  routing.AccountKey("aid-001"),
			want: "notifications:account:aid-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.key.Channel())
		})
	}
}

func TestParseChannel(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		for _, key := range []routing.Key{routing.AllKey(), routing.AccountKey("aid-42")} {
			got, err := routing.ParseChannel(key.Channel())
			require.NoError(t, err)
			assert.Equal(t, key, got)
		}
	})

	t.Run("rejects foreign channels", func(t *testing.T) {
		t.Parallel()
		for _, channel := range []string{"", "other:all", "notifications:", "notifications:account:"} {
			_, err := routing.ParseChannel(channel)
			assert.ErrorIs(t, err, routing.ErrInvalidChannel, channel)
		}
	})
}

func TestKey_Valid(t *testing.T) {
	t.Parallel()

	empty := ""
	assert.True(t, routing.AllKey().Valid())
	assert.True(t, routing.AccountKey("aid").Valid())
	assert.False(t, routing.Key{Type: routing.TypeAccount}.Valid())
	assert.False(t, routing.Key{Type: routing.TypeAccount, Value: &empty}.Valid())
	assert.False(t, routing.Key{Type: routing.Type(7)}.Valid())
}

func TestKey_JSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(routing.AllKey())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":0,"value":null}`, string(raw))

	var key routing.Key
	require.NoError(t, json.Unmarshal([]byte(`{"type":1,"value":"aid-9"}`), &key))
	assert.Equal(t, routing.AccountKey("aid-9"), key)
}
