package consent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoPrompterGrant(t *testing.T) {
	var got Token
	var gotErr error
	AutoPrompter{Grant: true}.Request(func(tok Token, err error) {
		got, gotErr = tok, err
	})

	assert.NoError(t, gotErr)
	assert.True(t, got.Valid())
}

func TestAutoPrompterDeny(t *testing.T) {
	var got Token
	var gotErr error
	AutoPrompter{}.Request(func(tok Token, err error) {
		got, gotErr = tok, err
	})

	assert.ErrorIs(t, gotErr, ErrDenied)
	assert.False(t, got.Valid())
}

func TestTokensAreUnique(t *testing.T) {
	a, b := NewToken(), NewToken()
	assert.NotEqual(t, a.ID, b.ID)
}
