package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitelangsirat/deswita-backend/pkg/logger"
)

type fakeRemover struct {
	removed []string
	fail    bool
}

func (f *fakeRemover) RemoveUpload(_ context.Context, path string) error {
	if f.fail {
		return errors.New("disk on fire")
	}
	f.removed = append(f.removed, path)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRemover) {
	t.Helper()
	store, _ := newTestFileStore(t)
	rm := &fakeRemover{}
	return NewService(store, rm, logger.Discard()), rm
}

func TestService_AddThenList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p := Record{"id": "p100", "name": "Teh Uji", "price": json.Number("15000"), "category": "Drink", "images": []any{"/uploads/a.jpg"}}
	stored, err := svc.Add(ctx, Products, p)
	require.NoError(t, err)
	assert.Equal(t, p, stored)

	list, err := svc.List(ctx, Products)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p, list[0])
}

func TestService_UpdateRemovesOrphanedUploads(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, Products, Record{"id": "p1", "images": []any{"/uploads/a.jpg", "/uploads/keep.jpg", "https://cdn.example/x.jpg"}})
	require.NoError(t, err)
	_, err = svc.Add(ctx, Products, Record{"id": "p2", "name": "untouched"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, Products, Record{"id": "p1", "images": []any{"/uploads/keep.jpg", "/uploads/b.jpg"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"/uploads/a.jpg"}, rm.removed)

	list, err := svc.List(ctx, Products)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []any{"/uploads/keep.jpg", "/uploads/b.jpg"}, list[0]["images"])
	assert.Equal(t, "untouched", list[1]["name"])
}

func TestService_UpdateChecksLegacyImageField(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, Articles, Record{"id": "a1", "image": "/uploads/old.png"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, Articles, Record{"id": "a1", "image": "/uploads/new.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/old.png"}, rm.removed)
}

func TestService_UpdateNotFound(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, Events, Record{"id": "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, rm.removed)

	list, err := svc.List(ctx, Events)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_DeleteTwice(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, Products, Record{"id": "p1", "images": []any{"/uploads/a.jpg"}, "image": "https://example.com/legacy.jpg"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, Products, Record{"id": "p2"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, Products, "p1"))
	assert.Equal(t, []string{"/uploads/a.jpg"}, rm.removed)

	err = svc.Delete(ctx, Products, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, rm.removed, 1)

	list, err := svc.List(ctx, Products)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].ID())
}

func TestService_RemovalFailureDoesNotAbortMutation(t *testing.T) {
	svc, rm := newTestService(t)
	rm.fail = true
	ctx := context.Background()

	_, err := svc.Add(ctx, Products, Record{"id": "p1", "images": []any{"/uploads/a.jpg"}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, Products, Record{"id": "p1", "images": []any{}})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, Products, "p1"))
}

func TestService_Stats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, Products, Record{"id": "p1"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, Events, Record{"id": "e1"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, Events, Record{"id": "e2"})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[Collection]int{Products: 1, Articles: 0, Events: 2}, stats)
}
