package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientsForExcludesActor(t *testing.T) {
	rooms := NewRooms(newFakeStore(map[string][]string{"conv1": {"a", "b", "c"}}), nil)

	ids, err := rooms.RecipientsFor(context.Background(), "conv1", "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}

func TestRecipientsForWithoutExclusion(t *testing.T) {
	rooms := NewRooms(newFakeStore(map[string][]string{"conv1": {"a", "b"}}), nil)

	ids, err := rooms.RecipientsFor(context.Background(), "conv1", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestRecipientsForDropsDuplicatesAndBlanks(t *testing.T) {
	rooms := NewRooms(newFakeStore(map[string][]string{"conv1": {"a", "b", "", "b", "a"}}), nil)

	ids, err := rooms.RecipientsFor(context.Background(), "conv1", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestRecipientsForUnknownConversation(t *testing.T) {
	rooms := NewRooms(newFakeStore(map[string][]string{}), nil)

	ids, err := rooms.RecipientsFor(context.Background(), "nope", "a")
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestRecipientsForStoreFailure(t *testing.T) {
	boom := errors.New("mongo down")
	store := newFakeStore(map[string][]string{"conv1": {"a", "b"}})
	store.err = boom
	rooms := NewRooms(store, nil)

	_, err := rooms.RecipientsFor(context.Background(), "conv1", "a")
	assert.ErrorIs(t, err, boom)
}

func TestRecipientsForReadsCurrentMembership(t *testing.T) {
	store := newFakeStore(map[string][]string{"conv1": {"a", "b"}})
	rooms := NewRooms(store, nil)

	store.set("conv1", "a", "b", "c")
	ids, err := rooms.RecipientsFor(context.Background(), "conv1", "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}
