//go:build unit

package owner_test

import (
	"testing"
	"time"

	"kitabu/internal/domain/owner"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cmpOpts = []cmp.Option{
	cmp.AllowUnexported(owner.Owner{}),
}

func TestNewOwner(t *testing.T) {
	t.Run("normalizes the email address", func(t *testing.T) {
		actual, err := owner.New("  User@Example.COM ", "hashed-password", owner.RoleMember)
		require.NoError(t, err)

		expected := owner.Reconstruct(actual.ID(), "user@example.com", "hashed-password", owner.RoleMember, true, time.Time{})
		if diff := cmp.Diff(expected, actual, cmpOpts...); diff != "" {
			t.Errorf("Owner mismatch (-want +got):\n%s", diff)
		}

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.True(t, actual.IsActive())
	})

	t.Run("email validation", func(t *testing.T) {
		cases := []struct {
			name  string
			email string
			errIs error
		}{
			{name: "plain address ok", email: "valid@example.com"},
			{name: "empty address rejected", email: "", errIs: owner.ErrInvalidEmail},
			{name: "missing at sign rejected", email: "invalid.example.com", errIs: owner.ErrInvalidEmail},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				_, err := owner.New(c.email, "hashed-password", owner.RoleMember)
				if c.errIs == nil {
					require.NoError(t, err)
				} else {
					require.ErrorIs(t, err, c.errIs)
				}
			})
		}
	})
}

func TestNewRole(t *testing.T) {
	cases := []struct {
		name  string
		value string
		errIs error
	}{
		{name: "admin ok", value: "admin"},
		{name: "member ok", value: "member"},
		{name: "unknown role rejected", value: "superuser", errIs: owner.ErrInvalidRole},
		{name: "empty role rejected", value: "", errIs: owner.ErrInvalidRole},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			role, err := owner.NewRole(c.value)
			if c.errIs == nil {
				require.NoError(t, err)
				assert.Equal(t, owner.Role(c.value), role)
			} else {
				require.ErrorIs(t, err, c.errIs)
			}
		})
	}
}
