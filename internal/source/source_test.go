package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResRangeContains(t *testing.T) {
	// min is the coarsest (largest) bound, max the finest (smallest)
	r := ResRange{Min: 250000000, Max: 1}

	assert.True(t, r.Contains(1000))
	assert.True(t, r.Contains(250000000))
	assert.True(t, r.Contains(1))
	assert.False(t, r.Contains(0.5), "finer than max_res")
	assert.False(t, r.Contains(300000000), "coarser than min_res")
}

func TestResRangeUnboundedAlwaysMatches(t *testing.T) {
	open := ResRange{}
	assert.True(t, open.Contains(0.001))
	assert.True(t, open.Contains(1e9))

	onlyMin := ResRange{Min: 1000}
	assert.True(t, onlyMin.Contains(0.001))
	assert.False(t, onlyMin.Contains(2000))

	onlyMax := ResRange{Max: 10}
	assert.True(t, onlyMax.Contains(1e9))
	assert.False(t, onlyMax.Contains(5))
}

func TestResRangeValidate(t *testing.T) {
	assert.NoError(t, ResRange{}.Validate())
	assert.NoError(t, ResRange{Min: 1000, Max: 1}.Validate())
	assert.Error(t, ResRange{Min: 1, Max: 1000}.Validate(), "inverted bounds rejected")
}
