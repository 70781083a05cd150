// Package seed fills the users table with fake, validated users.
package seed

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/andrestovio/module10-is601/internal/types"
)

// PasswordLength is the length of generated plain-text passwords.
const PasswordLength = 12

// maxAttempts bounds the search for an unused email/username pair.
const maxAttempts = 1000

// ErrExhausted is returned when no unique identity could be generated.
var ErrExhausted = errors.New("seed: could not generate a unique user")

var usernameStrip = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Generator produces fake users. It is not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator returns a Generator. A zero seed picks a random one; any
// other value makes the output reproducible.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Generate returns a valid user whose email and username are absent from
// the given sets, then records both so later calls avoid them too.
func (g *Generator) Generate(emails, usernames map[string]struct{}) (types.UserData, error) {
	for i := 0; i < maxAttempts; i++ {
		data := types.UserData{
			FirstName: g.faker.FirstName(),
			LastName:  g.faker.LastName(),
			Email:     strings.ToLower(g.faker.Email()),
			Username:  g.username(),
			Password:  g.faker.Password(true, true, true, true, false, PasswordLength),
		}

		if _, taken := emails[data.Email]; taken {
			continue
		}
		if _, taken := usernames[data.Username]; taken {
			continue
		}
		if types.Validate(data) != nil {
			continue
		}

		emails[data.Email] = struct{}{}
		usernames[data.Username] = struct{}{}
		return data, nil
	}
	return types.UserData{}, fmt.Errorf("%w after %d attempts", ErrExhausted, maxAttempts)
}

func (g *Generator) username() string {
	name := usernameStrip.ReplaceAllString(g.faker.Username(), "")
	if len(name) < 3 {
		name += g.faker.DigitN(3)
	}
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
