// Package consent models the one-time authorization to capture the screen.
// A Token proves the user agreed to one recording session; it is handed to
// the recorder on start and is not reused.
package consent

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDenied is reported when the user refuses or dismisses the consent prompt.
var ErrDenied = errors.New("screen capture consent denied")

type Token struct {
	ID        string
	GrantedAt time.Time
}

// NewToken mints a token for a consent that was just granted.
func NewToken() Token {
	return Token{ID: uuid.NewString(), GrantedAt: time.Now()}
}

// Valid reports whether the token was minted by NewToken.
func (t Token) Valid() bool {
	return t.ID != "" && !t.GrantedAt.IsZero()
}

// Prompter asks for capture consent. The callback receives either a valid
// token and a nil error, or ErrDenied. It may run on any goroutine.
type Prompter interface {
	Request(func(Token, error))
}

// AutoPrompter answers every request without user interaction.
// It serves headless runs where consent was given in configuration.
type AutoPrompter struct {
	Grant bool
}

func (p AutoPrompter) Request(done func(Token, error)) {
	if !p.Grant {
		done(Token{}, ErrDenied)
		return
	}
	done(NewToken(), nil)
}
