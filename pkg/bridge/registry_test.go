package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teamdocs/notifier/pkg/bridge"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("many to many", func(t *testing.T) {
		t.Parallel()
		r := bridge.NewRegistry(nil)

		r.Add("c1", []string{"ch-a", "ch-all"})
		r.Add("c2", []string{"ch-a"})

		assert.Equal(t, []string{"c1", "c2"}, r.ConnIDs("ch-a"))
		assert.Equal(t, []string{"c1"}, r.ConnIDs("ch-all"))
		assert.Equal(t, []string{"ch-a", "ch-all"}, r.Channels("c1"))
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()
		r := bridge.NewRegistry(nil)

		r.Add("c1", []string{"ch-a", "ch-b"})
		r.Remove("c1", []string{"ch-a", "ch-missing"})

		assert.Empty(t, r.ConnIDs("ch-a"))
		assert.Equal(t, []string{"ch-b"}, r.Channels("c1"))
	})

	t.Run("drop conn clears everything", func(t *testing.T) {
		t.Parallel()
		r := bridge.NewRegistry(nil)

		r.Add("c1", []string{"ch-a", "ch-b"})
		r.Add("c2", []string{"ch-a"})
		r.DropConn("c1")

		assert.Empty(t, r.Channels("c1"))
		assert.Equal(t, []string{"c2"}, r.ConnIDs("ch-a"))
	})
}
