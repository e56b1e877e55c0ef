/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package optimizer_test

import (
	"testing"

	"github.com/boss-server-ops/Minindn/optimizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedianPolicy(t *testing.T) {
	p := optimizer.MedianPolicy{}

	res, ok := p.Select([]string{"2K", "4K", "8K"})
	assert.True(t, ok)
	assert.Equal(t, "4K", res)

	res, _ = p.Select([]string{"2K", "4K"})
	assert.Equal(t, "4K", res)

	res, _ = p.Select([]string{"2K"})
	assert.Equal(t, "2K", res)

	res, _ = p.Select([]string{"a", "b", "c", "d"})
	assert.Equal(t, "c", res)

	_, ok = p.Select(nil)
	assert.False(t, ok)
}

func TestLowestHighestPolicy(t *testing.T) {
	list := []string{"2K", "4K", "8K"}

	res, ok := optimizer.LowestPolicy{}.Select(list)
	assert.True(t, ok)
	assert.Equal(t, "2K", res)

	res, ok = optimizer.HighestPolicy{}.Select(list)
	assert.True(t, ok)
	assert.Equal(t, "8K", res)

	_, ok = optimizer.HighestPolicy{}.Select(nil)
	assert.False(t, ok)
}

func TestPolicyByName(t *testing.T) {
	for _, name := range optimizer.PolicyNames() {
		p, err := optimizer.PolicyByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
	assert.Equal(t, []string{"highest", "lowest", "median"}, optimizer.PolicyNames())

	_, err := optimizer.PolicyByName("bandwidth")
	assert.ErrorIs(t, err, optimizer.ErrUnknownPolicy)
}
