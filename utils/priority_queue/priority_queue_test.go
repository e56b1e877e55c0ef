/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package priority_queue_test

import (
	"testing"

	"github.com/boss-server-ops/Minindn/utils/priority_queue"
	"github.com/stretchr/testify/assert"
)

func TestBasics(t *testing.T) {
	q := priority_queue.New[string, int]()
	assert.Equal(t, 0, q.Len())
	q.Set("a", 1)
	q.Set("b", 3)
	q.Set("c", 2)
	assert.Equal(t, 3, q.Len())

	k, p, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, "a", k)
	assert.Equal(t, 1, p)

	k, _, _ = q.Pop()
	assert.Equal(t, "a", k)
	k, _, _ = q.Pop()
	assert.Equal(t, "c", k)
	k, _, _ = q.Pop()
	assert.Equal(t, "b", k)

	_, _, ok = q.Pop()
	assert.False(t, ok)
}

func TestSetMovesExistingKey(t *testing.T) {
	q := priority_queue.New[string, int]()
	q.Set("a", 1)
	q.Set("b", 2)
	q.Set("a", 5)
	assert.Equal(t, 2, q.Len())

	k, _, _ := q.Peek()
	assert.Equal(t, "b", k)
}

func TestRemoveAndPopUntil(t *testing.T) {
	q := priority_queue.New[int, int64]()
	for i := 0; i < 10; i++ {
		q.Set(i, int64(10-i))
	}
	assert.True(t, q.Remove(9))
	assert.False(t, q.Remove(9))

	assert.Equal(t, []int{8, 7, 6}, q.PopUntil(4))
	assert.Equal(t, 6, q.Len())
	assert.Empty(t, q.PopUntil(0))
}
