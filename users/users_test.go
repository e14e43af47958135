package users_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/users"
	"github.com/stretchr/testify/require"
)

func TestCan(t *testing.T) {
	regular := &users.UserProfile{ID: 1, Username: "alice"}
	super := &users.UserProfile{ID: 2, Username: "root", IsSuperuser: true}
	revoker := &users.UserProfile{ID: 3, Username: "boss", IsSuperuser: true, CanRevokeAdmins: true}

	t.Run("anonymous has nothing", func(t *testing.T) {
		require.False(t, users.Can(nil, users.ManageAdmins))
		require.False(t, users.Can(nil, users.ChangeBookingStatus))
	})

	t.Run("regular user has nothing", func(t *testing.T) {
		for _, c := range []users.Capability{users.ManageAdmins, users.RevokeAdmins, users.ViewActivityLogs, users.ManageUsers, users.ChangeBookingStatus, users.BookForOthers} {
			require.False(t, users.Can(regular, c), c)
		}
	})

	t.Run("superuser without revoke flag", func(t *testing.T) {
		require.True(t, users.Can(super, users.ManageAdmins))
		require.True(t, users.Can(super, users.ChangeBookingStatus))
		require.False(t, users.Can(super, users.RevokeAdmins))
		require.False(t, users.Can(super, users.Capability("unknown")))
	})

	t.Run("revoke excludes self", func(t *testing.T) {
		require.True(t, users.CanRevoke(revoker, 2))
		require.False(t, users.CanRevoke(revoker, 3))
		require.False(t, users.CanRevoke(super, 1))
	})
}

func TestRegistrationValidate(t *testing.T) {
	valid := users.Registration{Username: "bob", Email: "bob@example.com", Password: "longenough", ConfirmPassword: "longenough"}
	require.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.ConfirmPassword = "different1"
	require.ErrorIs(t, mismatch.Validate(), apperrors.ErrPasswordMismatch)

	short := valid
	short.Password, short.ConfirmPassword = "short", "short"
	require.ErrorIs(t, short.Validate(), apperrors.ErrPasswordTooShort)

	noEmail := valid
	noEmail.Email = " "
	err := noEmail.Validate()
	require.ErrorIs(t, err, apperrors.ErrMissingField)
	require.Contains(t, err.Error(), "email")
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Bob Smith", (&users.UserProfile{Username: "bob", FullName: "Bob Smith"}).DisplayName())
	require.Equal(t, "Bob", (&users.UserProfile{Username: "bob", FirstName: "Bob"}).DisplayName())
	require.Equal(t, "bob", (&users.UserProfile{Username: "bob"}).DisplayName())
	var nilProfile *users.UserProfile
	require.Equal(t, "", nilProfile.DisplayName())
}
