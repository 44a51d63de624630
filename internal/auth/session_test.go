package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNameFor(t *testing.T) {
	cases := []struct {
		name, email, want string
	}{
		{"  Asha Rao ", "asha@example.com", "Asha Rao"},
		{"", "john.doe42@example.com", "John Doe"},
		{"", "priya_k-sharma@example.com", "Priya K Sharma"},
		{"   ", "ravi@example.com", "Ravi"},
		{"", "1234@example.com", "User"},
		{"", "", "User"},
		{"", "mIxEd.case@x", "MIxEd Case"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DisplayNameFor(tc.name, tc.email), "%q/%q", tc.name, tc.email)
	}
}

func TestInitial(t *testing.T) {
	assert.Equal(t, "J", Initial("john"))
	assert.Equal(t, "É", Initial("émile"))
	assert.Equal(t, "", Initial(""))
	assert.Equal(t, "U", User{}.Initial())
	assert.Equal(t, "Asha", User{Email: "asha@x.in"}.Name())
}

func TestSessionContext(t *testing.T) {
	assert.False(t, SessionFrom(context.Background()).Authenticated)

	ctx := WithSession(context.Background(), Session{User: User{ID: "u1"}, Authenticated: true})
	s := SessionFrom(ctx)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "u1", s.User.ID)
}
