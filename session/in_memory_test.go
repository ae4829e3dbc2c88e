package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpipe/agentpipe/workflow"
)

func TestInMemoryStoreLazyGet(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.Data)
	assert.Empty(t, sess.Executions)
}

func TestInMemoryStoreApplyDelta(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.ApplyDelta("s1", map[string]any{"user": "alice"}))
	require.NoError(t, store.ApplyDelta("s1", map[string]any{"count": 2}))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Data["user"])
	assert.Equal(t, 2, sess.Data["count"])
}

func TestInMemoryStoreAppendExecution(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.AppendExecution("s1", workflow.Outcome{
		WorkflowID: "wf-1",
		Success:    true,
	}))
	require.NoError(t, store.AppendExecution("s1", workflow.Outcome{
		WorkflowID: "wf-2",
		Success:    false,
	}))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, sess.Executions, 2)
	assert.Equal(t, "wf-1", sess.Executions[0].WorkflowID)
	assert.False(t, sess.Executions[1].Success)
}

func TestInMemoryStoreClonesOnRead(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.ApplyDelta("s1", map[string]any{"k": "v"}))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	sess.Data["k"] = "mutated"

	again, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "v", again.Data["k"])
}

func TestInMemoryStoreCreateResets(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.ApplyDelta("s1", map[string]any{"k": "v"}))

	sess, err := store.Create("s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Data)
}
