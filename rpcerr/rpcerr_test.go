package rpcerr

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		Message string
		Kind    Kind
		DC      int
	}{
		{"PHONE_MIGRATE_5", Migrate, 5},
		{"NETWORK_MIGRATE_2", Migrate, 2},
		{"USER_MIGRATE_4", Migrate, 4},
		{"FILE_MIGRATE_1", Migrate, 1},
		{"FILE_MIGRATE_12", Migrate, 12},
		{"STATS_MIGRATE_3", Terminal, 0},
		{"PHONE_MIGRATE_0", Terminal, 0},
		{"PHONE_MIGRATE_", Terminal, 0},
		{"PHONE_MIGRATE_X", Terminal, 0},
		{"PHONE_MIGRATE_99999999999999999999999", Terminal, 0},
		{"XPHONE_MIGRATE_5", Terminal, 0},
		{"PHONE_CODE_INVALID", PhoneCodeInvalid, 0},
		{"SESSION_PASSWORD_NEEDED", SessionPasswordNeeded, 0},
		{"PASSWORD_HASH_INVALID", PasswordHashInvalid, 0},
		{"FLOOD_WAIT_10", Terminal, 0},
		{"", Terminal, 0},
	} {
		t.Run(tt.Message, func(t *testing.T) {
			a := require.New(t)
			e := Parse(400, tt.Message)
			a.Equal(tt.Kind, e.Kind)
			a.Equal(tt.DC, e.DC)
			a.Equal(tt.Message, e.Message)
			a.Equal(400, e.Code)
		})
	}
}

func TestClassify(t *testing.T) {
	t.Run("Wrapped", func(t *testing.T) {
		a := require.New(t)
		err := errors.Wrap(tgerr.New(303, "USER_MIGRATE_3"), "invoke")

		dc, ok := AsMigrate(err)
		a.True(ok)
		a.Equal(3, dc)
		a.True(Is(err, Migrate))
		a.False(Is(err, Terminal))
	})
	t.Run("Argument", func(t *testing.T) {
		a := require.New(t)
		e, ok := Classify(&tgerr.Error{Code: 303, Message: "NETWORK_MIGRATE_4", Type: "NETWORK_MIGRATE", Argument: 4})
		a.True(ok)
		a.Equal(Migrate, e.Kind)
		a.Equal(4, e.DC)

		e, ok = Classify(&tgerr.Error{Code: 303, Message: "NETWORK_MIGRATE", Type: "NETWORK_MIGRATE"})
		a.True(ok)
		a.Equal(Terminal, e.Kind)
	})
	t.Run("NotRPC", func(t *testing.T) {
		a := require.New(t)
		_, ok := Classify(errors.New("boom"))
		a.False(ok)
		_, ok = AsMigrate(errors.New("PHONE_MIGRATE_5"))
		a.False(ok)
		a.False(Is(nil, Terminal))
	})
}

func TestIsPermanent(t *testing.T) {
	a := require.New(t)
	a.True(IsPermanent(tgerr.New(401, "AUTH_KEY_UNREGISTERED")))
	a.True(IsPermanent(tgerr.New(401, "SESSION_REVOKED")))
	a.True(IsPermanent(errors.Wrap(tgerr.New(406, "AUTH_KEY_DUPLICATED"), "poll")))
	a.False(IsPermanent(tgerr.New(420, "FLOOD_WAIT_3")))
	a.False(IsPermanent(errors.New("network down")))
}
