package trie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTrie_GetOnEmptyTrieReturnsFalse verifies looking up any key in
// the zero-value trie is a clean miss, not a panic.
func TestTrie_GetOnEmptyTrieReturnsFalse(t *testing.T) {
	var empty Trie
	_, ok := Get[uint32](empty, "anything")
	require.False(t, ok)
}

// TestTrie_PutThenGetRoundTrips verifies the basic put/get contract.
func TestTrie_PutThenGetRoundTrips(t *testing.T) {
	var t0 Trie
	t1 := Put(t0, "hello", uint32(7))

	v, ok := Get[uint32](t1, "hello")
	require.True(t, ok)
	require.Equal(t, uint32(7), v)
}

// TestTrie_PutOverwritesPriorValueForSameKey verifies the second Put
// for a key wins on subsequent Get.
func TestTrie_PutOverwritesPriorValueForSameKey(t *testing.T) {
	var t0 Trie
	t1 := Put(t0, "k", "v1")
	t2 := Put(t1, "k", "v2")

	v, ok := Get[string](t2, "k")
	require.True(t, ok)
	require.Equal(t, "v2", v)
}

// TestTrie_TypeMismatchOnGetReturnsFalse verifies that requesting a
// key with the wrong type parameter reports a clean miss.
func TestTrie_TypeMismatchOnGetReturnsFalse(t *testing.T) {
	var t0 Trie
	t1 := Put(t0, "k", uint32(1))

	_, ok := Get[uint64](t1, "k")
	require.False(t, ok)
}

// TestTrie_PutIsPersistentAndDoesNotMutateThePriorVersion verifies
// putting "ac" into a trie that already has "ab" must not disturb the
// older version's view of "ab", and a sibling key introduced later is
// invisible to the older version.
func TestTrie_PutIsPersistentAndDoesNotMutateThePriorVersion(t *testing.T) {
	var empty Trie
	t1 := Put(empty, "ab", uint32(1))
	t2 := Put(t1, "ac", uint32(2))

	_, ok := Get[uint32](t1, "ac")
	require.False(t, ok, "t1 must not observe a key introduced only in t2")

	v, ok := Get[uint32](t2, "ab")
	require.True(t, ok)
	require.Equal(t, uint32(1), v)

	_, ok = Get[uint64](t2, "ab")
	require.False(t, ok, "type mismatch must still miss even on a shared subtree")
}

// TestTrie_RemoveStripsValueButRemoveOfMissingKeyIsANoop verifies
// Remove clears an existing value and leaves an equivalent trie when
// the key was never present.
func TestTrie_RemoveStripsValueButRemoveOfMissingKeyIsANoop(t *testing.T) {
	var t0 Trie
	t1 := Put(t0, "key", uint32(5))
	t2 := Remove(t1, "key")

	_, ok := Get[uint32](t2, "key")
	require.False(t, ok)

	// t1 must still see the value: Remove does not mutate its receiver.
	v, ok := Get[uint32](t1, "key")
	require.True(t, ok)
	require.Equal(t, uint32(5), v)

	t3 := Remove(t2, "nonexistent")
	_, ok = Get[uint32](t3, "key")
	require.False(t, ok)
}

// TestTrie_EmptyKeyStoresAValueAtTheRoot verifies the empty string is
// a valid key that stores a value directly on the root node.
func TestTrie_EmptyKeyStoresAValueAtTheRoot(t *testing.T) {
	var t0 Trie
	t1 := Put(t0, "", uint32(99))

	v, ok := Get[uint32](t1, "")
	require.True(t, ok)
	require.Equal(t, uint32(99), v)
}

// TestTrie_PutPreservesExistingChildrenOfOverwrittenNode verifies that
// promoting an interior node to a value-bearing node keeps its
// existing children reachable.
func TestTrie_PutPreservesExistingChildrenOfOverwrittenNode(t *testing.T) {
	var t0 Trie
	t1 := Put(t0, "cat", uint32(1))  // "ca" is an interior node
	t2 := Put(t1, "ca", uint32(2))   // now "ca" gains a value too

	v, ok := Get[uint32](t2, "cat")
	require.True(t, ok, "existing child path must survive promoting its parent to a value node")
	require.Equal(t, uint32(1), v)

	v, ok = Get[uint32](t2, "ca")
	require.True(t, ok)
	require.Equal(t, uint32(2), v)
}
