package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/tgtest"
)

const (
	testPhone    = "+10000000000"
	testCode     = "12345"
	testPassword = "secret"
	testSRPID    = 42
)

var (
	errSelf = errors.New("self error")
	testB   = []byte{5, 5, 5}
)

// server is a scripted login server.
type server struct {
	mux    sync.Mutex
	codes  int
	hashes []string
	signIn func(req *tg.AuthSignInRequest) (bin.Encoder, error)
	check  func(req *tg.InputCheckPasswordSRP) (bin.Encoder, error)
	self   error
	// sendCode overrides sendCode handling when set.
	sendCode func(dc int) (bin.Encoder, error)
}

func authorization() *tg.AuthAuthorization {
	return &tg.AuthAuthorization{
		User: &tg.User{
			ID:        10,
			FirstName: "Ivan",
			LastName:  "Petrov",
			Username:  "ivan",
		},
	}
}

func accountPassword() *tg.AccountPassword {
	return &tg.AccountPassword{
		HasPassword: true,
		CurrentAlgo: &tg.PasswordKdfAlgoSHA256SHA256PBKDF2HMACSHA512iter100000SHA256ModPow{
			Salt1: []byte{1},
			Salt2: []byte{2},
			G:     3,
			P:     []byte{4},
		},
		SRPB:          testB,
		SRPID:         testSRPID,
		NewAlgo:       &tg.PasswordKdfAlgoUnknown{},
		NewSecureAlgo: &tg.SecurePasswordKdfAlgoUnknown{},
		SecureRandom:  []byte{6},
	}
}

func (s *server) handle(ctx context.Context, dc int, input bin.Encoder) (bin.Encoder, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	switch r := input.(type) {
	case *tg.AuthSendCodeRequest:
		if s.sendCode != nil {
			if res, err := s.sendCode(dc); res != nil || err != nil {
				return res, err
			}
		}
		s.codes++
		return &tg.AuthSentCode{
			Type:          &tg.AuthSentCodeTypeSMS{Length: 5},
			PhoneCodeHash: fmt.Sprintf("hash-%d", s.codes),
		}, nil
	case *tg.AuthSignInRequest:
		s.hashes = append(s.hashes, r.PhoneCodeHash)
		if s.signIn == nil {
			return authorization(), nil
		}
		return s.signIn(r)
	case *tg.AccountGetPasswordRequest:
		return accountPassword(), nil
	case *tg.AuthCheckPasswordRequest:
		req, ok := r.Password.(*tg.InputCheckPasswordSRP)
		if !ok {
			return nil, errors.Errorf("unexpected password %T", r.Password)
		}
		if s.check == nil {
			return authorization(), nil
		}
		return s.check(req)
	case *tg.UsersGetUsersRequest:
		if s.self != nil {
			return nil, s.self
		}
		return &tg.UserClassVector{Elems: []tg.UserClass{authorization().User}}, nil
	default:
		return nil, errors.Errorf("unexpected request %T", input)
	}
}

func (s *server) Hashes() []string {
	s.mux.Lock()
	defer s.mux.Unlock()

	return append([]string(nil), s.hashes...)
}

// scripted is UserAuthenticator with queued answers.
type scripted struct {
	phone     string
	codes     []string
	passwords []string

	codeCalls     int
	passwordCalls int
}

func (s *scripted) Phone(ctx context.Context) (string, error) {
	return s.phone, nil
}

func (s *scripted) Code(ctx context.Context, sent *tg.AuthSentCode) (string, error) {
	s.codeCalls++
	if len(s.codes) == 0 {
		return testCode, nil
	}
	v := s.codes[0]
	s.codes = s.codes[1:]
	return v, nil
}

func (s *scripted) Password(ctx context.Context) (string, error) {
	s.passwordCalls++
	if len(s.passwords) == 0 {
		return testPassword, nil
	}
	v := s.passwords[0]
	s.passwords = s.passwords[1:]
	return v, nil
}

func testLogger(t *testing.T) *zerolog.Logger {
	lg := zerolog.New(zerolog.NewTestWriter(t)).With().Str("logger", "auth").Logger()
	return &lg
}

func newTestClient(t *testing.T, s *server) (*Client, *tgtest.API) {
	api := tgtest.NewAPI(t, s.handle)
	return NewClient(api, 1, "hash", Options{Logger: testLogger(t)}), api
}
