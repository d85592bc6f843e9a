package config

import (
	"os"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Peer selects channel by id or username.
type Peer struct {
	ID       int64
	Username string
}

// Env is environment configuration.
type Env struct {
	AppID   int
	AppHash string

	Phone    string
	Code     string
	Password string

	From Peer
	To   Peer

	ErrorBotToken string
	ErrorUserID   string
	// BotToken of bot posting copies in bypass mode.
	BotToken string
}

// LoadDotEnv loads .env file into process environment. Variables that
// are already set are kept. Missing file is ignored.
func LoadDotEnv(name string) error {
	if err := godotenv.Load(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "load %s", name)
	}
	return nil
}

// ParseEnv reads Env using lookup.
func ParseEnv(lookup func(string) (string, bool)) (Env, error) {
	get := func(k string) string {
		v, _ := lookup(k)
		return v
	}

	var e Env
	appID := get("APP_ID")
	if appID == "" {
		return Env{}, &Error{Field: "APP_ID", Reason: "required"}
	}
	id, err := strconv.Atoi(appID)
	if err != nil || id <= 0 {
		return Env{}, &Error{Field: "APP_ID", Reason: "must be positive integer"}
	}
	e.AppID = id

	if e.AppHash = get("APP_HASH"); e.AppHash == "" {
		return Env{}, &Error{Field: "APP_HASH", Reason: "required"}
	}

	e.Phone = get("PHONE")
	e.Code = get("PHONE_CODE")
	e.Password = get("TWO_FA_PASSWORD")

	if e.From, err = parsePeer(get, "FROM"); err != nil {
		return Env{}, err
	}
	if e.To, err = parsePeer(get, "TO"); err != nil {
		return Env{}, err
	}

	e.ErrorBotToken = get("ERROR_HANDLER_BOT_TOKEN")
	e.ErrorUserID = get("ERROR_HANDLER_USER_ID")
	e.BotToken = get("BOT_TOKEN")
	return e, nil
}

func parsePeer(get func(string) string, prefix string) (Peer, error) {
	idKey := prefix + "_CHANNEL_ID"
	if v := get(idKey); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return Peer{}, &Error{Field: idKey, Reason: "must be positive integer"}
		}
		return Peer{ID: id}, nil
	}
	if v := get(prefix + "_USERNAME"); v != "" {
		return Peer{Username: v}, nil
	}
	return Peer{}, &Error{
		Field:  idKey,
		Reason: "either " + prefix + "_USERNAME or " + idKey + " must be set",
	}
}

// Config is complete configuration.
type Config struct {
	File
	Env
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Report() {
		if c.ErrorBotToken == "" {
			return &Error{Field: "ERROR_HANDLER_BOT_TOKEN", Reason: "required when report_errors_to_telegram is set"}
		}
		if c.ErrorUserID == "" {
			return &Error{Field: "ERROR_HANDLER_USER_ID", Reason: "required when report_errors_to_telegram is set"}
		}
	}
	if c.NativeCopy == NativeOff && c.BotToken == "" {
		return &Error{Field: "BOT_TOKEN", Reason: "required when native_copy is false"}
	}
	return nil
}

// Load loads .env file, process environment and config file.
func Load(configPath, envPath string) (Config, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return Config{}, err
	}
	f, err := LoadFile(configPath)
	if err != nil {
		return Config{}, err
	}
	e, err := ParseEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{File: f, Env: e}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
