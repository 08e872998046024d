// Package config loads credentials and run settings from the environment and
// an optional dotenv file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment keys.
const (
	KeyClientID          = "RC_CLIENT_ID"
	KeyClientSecret      = "RC_CLIENT_SECRET"
	KeyJWT               = "RC_JWT_TOKEN"
	KeyServer            = "RC_SERVER"
	KeyRequestInterval   = "RC_REQUEST_INTERVAL"
	KeyMaxRetries        = "RC_MAX_RETRIES"
	KeyRetryAfterDefault = "RC_RETRY_AFTER_DEFAULT"
	KeyPageSize          = "RC_PAGE_SIZE"
	KeyJournalPath       = "RC_JOURNAL_PATH"
	KeyPhoneRegion       = "RC_PHONE_REGION"
)

// DefaultEnvFile is read when present and no other file is named.
const DefaultEnvFile = ".env"

// MaxPageSize is the largest perPage the call-log API accepts.
const MaxPageSize = 1000

// MinRequestInterval is the smallest non-zero gap accepted between API calls.
const MinRequestInterval = 100 * time.Millisecond

// ErrMissing marks a required value that was not provided.
var ErrMissing = errors.New("missing")

// Error is a configuration problem detected before any network call.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Credentials authenticate against the RingCentral platform.
type Credentials struct {
	ClientID     string
	ClientSecret string
	JWT          string
	Server       string
}

// Settings tune throttling, retries and output.
type Settings struct {
	// RequestInterval is the minimum gap between consecutive API calls.
	RequestInterval time.Duration
	// MaxRetries bounds retries of a single call after rate limiting or a
	// transient failure.
	MaxRetries int
	// RetryAfterDefault is the pause after HTTP 429 when no Retry-After is sent.
	RetryAfterDefault time.Duration
	PageSize          int
	// JournalPath is where deleted records are appended; "-" disables the journal.
	JournalPath string
	// PhoneRegion is the default region for numbers written without a country code.
	PhoneRegion string
}

// Config is built once at startup and passed explicitly to the components
// that need it.
type Config struct {
	Credentials Credentials
	Settings    Settings
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyRequestInterval, "6s")
	v.SetDefault(KeyMaxRetries, 3)
	v.SetDefault(KeyRetryAfterDefault, "60s")
	v.SetDefault(KeyPageSize, 100)
	v.SetDefault(KeyJournalPath, "deleted_call_logs.log")
	v.SetDefault(KeyPhoneRegion, "US")
	v.AutomaticEnv()
	return v
}

func readViper(envFile string) (*viper.Viper, error) {
	v := newViper()
	if envFile != "" && FileExists(envFile) {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Key: envFile, Err: err}
		}
	}
	return v, nil
}

// journalOff disables the deletion journal. viper treats an empty
// environment value as unset, so "" cannot be used for that.
const journalOff = "-"

func settingsFrom(v *viper.Viper) (Settings, error) {
	interval, err := durationValue(v, KeyRequestInterval)
	if err != nil {
		return Settings{}, err
	}
	retryAfter, err := durationValue(v, KeyRetryAfterDefault)
	if err != nil {
		return Settings{}, err
	}

	journal := strings.TrimSpace(v.GetString(KeyJournalPath))
	if journal == journalOff {
		journal = ""
	}
	return Settings{
		RequestInterval:   interval,
		MaxRetries:        v.GetInt(KeyMaxRetries),
		RetryAfterDefault: retryAfter,
		PageSize:          v.GetInt(KeyPageSize),
		JournalPath:       journal,
		PhoneRegion:       strings.ToUpper(strings.TrimSpace(v.GetString(KeyPhoneRegion))),
	}, nil
}

// durationValue reads key as a Go duration ("6s", "1m30s"). A bare integer
// is a number of seconds.
func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &Error{Key: key, Err: fmt.Errorf("%q is not a duration such as \"6s\"", raw)}
	}
	return d, nil
}

// Load reads configuration. Process environment wins over envFile, which is
// optional: a missing file is not an error. now is used to reject an expired
// JWT credential.
func Load(envFile string, now time.Time) (*Config, error) {
	v, err := readViper(envFile)
	if err != nil {
		return nil, err
	}

	settings, err := settingsFrom(v)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Credentials: Credentials{
			ClientID:     strings.TrimSpace(v.GetString(KeyClientID)),
			ClientSecret: strings.TrimSpace(v.GetString(KeyClientSecret)),
			JWT:          strings.TrimSpace(v.GetString(KeyJWT)),
			Server:       strings.TrimRight(strings.TrimSpace(v.GetString(KeyServer)), "/"),
		},
		Settings: settings,
	}

	if err := cfg.Credentials.validate(now); err != nil {
		return nil, err
	}
	if err := cfg.Settings.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSettings reads only the run settings, for commands that never call
// the API.
func LoadSettings(envFile string) (Settings, error) {
	v, err := readViper(envFile)
	if err != nil {
		return Settings{}, err
	}
	s, err := settingsFrom(v)
	if err != nil {
		return Settings{}, err
	}
	return s, s.validate()
}

func (c Credentials) validate(now time.Time) error {
	var missing []string
	for _, kv := range []struct{ key, val string }{
		{KeyClientID, c.ClientID},
		{KeyClientSecret, c.ClientSecret},
		{KeyJWT, c.JWT},
		{KeyServer, c.Server},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return &Error{Key: strings.Join(missing, ", "), Err: ErrMissing}
	}

	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return &Error{Key: KeyServer, Err: fmt.Errorf("%q is not an http(s) URL", c.Server)}
	}

	return checkJWT(c.JWT, now)
}

func (s Settings) validate() error {
	if s.RequestInterval < 0 {
		return &Error{Key: KeyRequestInterval, Err: fmt.Errorf("must not be negative, got %s", s.RequestInterval)}
	}
	if s.RequestInterval > 0 && s.RequestInterval < MinRequestInterval {
		return &Error{Key: KeyRequestInterval, Err: fmt.Errorf("must be 0 or at least %s (for example \"6s\"), got %s", MinRequestInterval, s.RequestInterval)}
	}
	if s.MaxRetries < 0 {
		return &Error{Key: KeyMaxRetries, Err: fmt.Errorf("must not be negative, got %d", s.MaxRetries)}
	}
	if s.RetryAfterDefault <= 0 {
		return &Error{Key: KeyRetryAfterDefault, Err: fmt.Errorf("must be positive, got %s", s.RetryAfterDefault)}
	}
	if s.PageSize < 1 || s.PageSize > MaxPageSize {
		return &Error{Key: KeyPageSize, Err: fmt.Errorf("must be between 1 and %d, got %d", MaxPageSize, s.PageSize)}
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
