package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsOnPut(t *testing.T) {
	p := NewPool(
		func() map[string]int { return make(map[string]int) },
		func(m map[string]int) { clear(m) },
	)

	m := p.Get()
	m["a"] = 1
	p.Put(m)

	assert.Empty(t, m)
	assert.NotNil(t, p.Get())
}
