package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "set", ChangeSet.String())
	assert.Equal(t, "materialize", ChangeMaterialize.String())
	assert.Equal(t, "reset", ChangeReset.String())
	assert.Equal(t, "unknown", ChangeType(42).String())
}

func TestNotifier_Sync(t *testing.T) {
	n := New()
	defer n.Close()

	var all, javaOnly []Change
	n.Subscribe(func(c Change) { all = append(all, c) })
	sub := n.SubscribeItem("java", func(c Change) { javaOnly = append(javaOnly, c) })

	n.Publish(Change{Scope: -1, Item: "java", Type: ChangeSet})
	n.Publish(Change{Scope: 3, Item: "memory", Type: ChangeMaterialize})

	require.Len(t, all, 2)
	require.Len(t, javaOnly, 1)
	assert.NotEmpty(t, all[0].ID)
	assert.NotEqual(t, all[0].ID, all[1].ID)
	assert.Equal(t, 3, all[1].Scope)

	sub.Unsubscribe()
	n.Publish(Change{Item: "java"})
	assert.Len(t, javaOnly, 1)
	assert.Len(t, all, 3)
}

func TestNotifier_KeepsProvidedID(t *testing.T) {
	n := New()
	defer n.Close()

	var got Change
	n.Subscribe(func(c Change) { got = c })
	n.Publish(Change{ID: "fixed", Item: "java"})
	assert.Equal(t, "fixed", got.ID)
}

func TestNotifier_AsyncDrainsOnClose(t *testing.T) {
	n := New(WithAsync(16))

	var (
		mu   sync.Mutex
		seen int
	)
	n.Subscribe(func(Change) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		n.Publish(Change{Scope: i, Item: "memory"})
	}
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, seen)
}

func TestNotifier_PublishAfterClose(t *testing.T) {
	n := New(WithAsync(1))
	called := false
	n.Subscribe(func(Change) { called = true })

	n.Close()
	n.Close()
	n.Publish(Change{Item: "java"})
	assert.False(t, called)
}
