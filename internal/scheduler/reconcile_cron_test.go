package scheduler

import (
	"testing"

	"github.com/Dias221467/social_network/internal/jobs"
	"github.com/Dias221467/social_network/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartReconcileCron(t *testing.T) {
	store := memory.NewStore()
	reconciler := jobs.NewFriendReconciler(store, store)

	c, err := StartReconcileCron("@every 1h", reconciler)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	c, err = StartReconcileCron("", reconciler)
	require.NoError(t, err)
	assert.Empty(t, c.Entries())

	_, err = StartReconcileCron("not a schedule", reconciler)
	assert.Error(t, err)
}
