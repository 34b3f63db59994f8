package service

import (
	"sync"
	"testing"
	"time"

	"label-designer/internal/designer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerLifecycle(t *testing.T) {
	m := NewSessionManager(time.Minute, 0)

	var evicted []string
	m.OnEvicted(func(id string) { evicted = append(evicted, id) })

	a := m.Create()
	b := m.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Count())

	got, err := m.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	assert.True(t, m.Delete(a.ID))
	assert.False(t, m.Delete(a.ID))
	_, err = m.Get(a.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, []string{a.ID}, evicted)
	assert.Equal(t, 1, m.Count())
}

func TestSessionExpires(t *testing.T) {
	m := NewSessionManager(20*time.Millisecond, 0)
	sess := m.Create()

	time.Sleep(40 * time.Millisecond)
	_, err := m.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewSessionManager(time.Minute, 0, WithSnapPolicy(SnapNearest))
	a, b := m.Create(), m.Create()

	a.Do(func(store *Store, _ *Controller) {
		store.AddElement(models.TypeText)
		assert.Equal(t, SnapNearest, store.Policy())
	})
	b.Do(func(store *Store, _ *Controller) {
		assert.Empty(t, store.Elements())
	})
}

func TestSessionDoSerializesAccess(t *testing.T) {
	m := NewSessionManager(time.Minute, 0)
	sess := m.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Do(func(store *Store, _ *Controller) {
				store.AddElement(models.TypeRect)
			})
		}()
	}
	wg.Wait()

	sess.Do(func(store *Store, _ *Controller) {
		els := store.Elements()
		assert.Len(t, els, 20)
		zs := map[int]bool{}
		for _, el := range els {
			zs[el.Z] = true
		}
		assert.Len(t, zs, 20, "every add must stack above the previous one")
	})
}

func TestTakeSnapshot(t *testing.T) {
	store := NewStore()
	snap := TakeSnapshot(store, NewController(store))

	assert.Nil(t, snap.SelectedID)
	assert.NotNil(t, snap.Guides)
	assert.Equal(t, DragIdle, snap.Drag.Mode)
	assert.Equal(t, "last-match", snap.SnapPolicy)

	el, _ := store.AddElement(models.TypeQR)
	snap = TakeSnapshot(store, nil)
	require.NotNil(t, snap.SelectedID)
	assert.Equal(t, el.ID, *snap.SelectedID)
	assert.Len(t, snap.Elements, 1)
}
