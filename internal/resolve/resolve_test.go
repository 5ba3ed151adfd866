package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fairsplit/syncengine/internal/model"
)

// TestResolveLastWriteWins tests the timestamp comparison policy
func TestResolveLastWriteWins(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	tests := []struct {
		name   string
		local  time.Time
		remote time.Time
		want   Decision
	}{
		{"remote strictly newer", t1, t2, ServerWins},
		{"local strictly newer", t2, t1, LocalWins},
		{"equal timestamps favor local", t1, t1, LocalWins},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.local, tt.remote))
		})
	}
}

// TestResolveDeterministic tests that repeated calls with the same inputs
// yield the same decision
func TestResolveDeterministic(t *testing.T) {
	local := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	remote := local.Add(time.Second)

	first := Resolve(local, remote)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve(local, remote))
	}
}

// TestMergeAccountFlags tests that a locally-observed reauth condition
// survives a server-wins overwrite
func TestMergeAccountFlags(t *testing.T) {
	local := &model.Account{NeedsReauth: true}
	winner := &model.Account{NeedsReauth: false}

	MergeAccountFlags(local, winner)
	assert.True(t, winner.NeedsReauth, "true flag must not be lost to a stale false")

	// A remote true is never cleared by a local false either.
	local = &model.Account{NeedsReauth: false}
	winner = &model.Account{NeedsReauth: true}
	MergeAccountFlags(local, winner)
	assert.True(t, winner.NeedsReauth)
}
