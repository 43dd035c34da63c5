package repository

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestEscapeLikeNeutralizesMetacharacters(t *testing.T) {
	assert.Equal(t, escapeLike(`100%`), `100\%`)
	assert.Equal(t, escapeLike(`snake_case`), `snake\_case`)
	assert.Equal(t, escapeLike(`back\slash`), `back\\slash`)
	assert.Equal(t, escapeLike("plain words"), "plain words")
}
