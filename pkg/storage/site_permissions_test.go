package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/webgate/pkg/permission"
)

func TestInsertAndQueryAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR, Label: "Example",
	}))
	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "other.net", Category: permission.CategoryTracking,
	}))

	got, err := store.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestInsertRejectsEmptyURL(t *testing.T) {
	store := newTestStore(t)

	err := store.Insert(context.Background(), permission.SiteException{
		Category: permission.CategoryWebXR,
	})
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestInsertUpsertsOnURLAndCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR, Label: "old",
	}))
	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR, Label: "new",
	}))

	got, err := store.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Label)
}

func TestQueryByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR,
	}))
	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryTracking,
	}))

	got, err := store.QueryByCategory(ctx, permission.CategoryWebXR)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, permission.CategoryWebXR, got[0].Category)
}

func TestDeleteRemovesOnlyMatchingCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR,
	}))
	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryTracking,
	}))

	require.NoError(t, store.Delete(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR,
	}))

	got, err := store.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, permission.CategoryTracking, got[0].Category)
}

func TestSubscribeDeliversFullSetAfterChange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	updates := make(chan []permission.SiteException, 4)
	cancel := store.Subscribe(func(records []permission.SiteException) {
		updates <- records
	})
	defer cancel()

	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR,
	}))

	select {
	case records := <-updates:
		require.Len(t, records, 1)
		assert.Equal(t, "example.com", records[0].URL)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription delivery after insert")
	}

	require.NoError(t, store.Delete(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR,
	}))

	select {
	case records := <-updates:
		assert.Empty(t, records)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription delivery after delete")
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	updates := make(chan []permission.SiteException, 4)
	cancel := store.Subscribe(func(records []permission.SiteException) {
		updates <- records
	})
	cancel()

	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR,
	}))

	select {
	case <-updates:
		t.Fatal("delivery after cancel")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestObserverReceivesStorageEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	events := make(chan Event, 4)
	store.AddObserver(ObserverFunc(func(e Event) {
		events <- e
	}))

	require.NoError(t, store.Insert(ctx, permission.SiteException{
		URL: "example.com", Category: permission.CategoryWebXR,
	}))

	select {
	case e := <-events:
		assert.Equal(t, EventSitePermissionAdded, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no storage event after insert")
	}
}
