// Package config loads, validates, and scaffolds the on-disk
// configuration directory: config.yaml, the SSH host key, the
// application event log, and stored session recordings.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	RecordingsDirName = "recordings"
	PrivateKeyName    = "private_key"
	AppLogName        = "app.log"
)

type Configuration struct {
	configFs afero.Fs

	// ListenAddr is the host:port the SSH server binds to.
	ListenAddr string `json:"listen_addr" validate:"required,hostname_port"`
	// Banner is written to each session before the first prompt.
	Banner string `json:"banner"`
	// Prompt is used when a client doesn't set PS1.
	Prompt string `json:"prompt"`
	// HistoryFile is where each session persists its history.
	HistoryFile string `json:"history_file"`
	// RecordSessions turns on asciicast capture of terminal I/O.
	RecordSessions bool `json:"record_sessions"`
	// BandwidthLimit caps per-session terminal traffic in bytes per
	// second. Zero disables the cap.
	BandwidthLimit int64 `json:"bandwidth_limit" validate:"gte=0"`
	// AuthorizedKeys names an OpenSSH authorized_keys file relative to
	// the configuration directory. Empty disables public key auth.
	AuthorizedKeys string `json:"authorized_keys"`

	Users []User `json:"users" validate:"unique=Username,dive"`

	Aliases map[string]string `json:"aliases"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// User is one account that may open sessions over SSH.
type User struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
	Home     string `json:"home"`
}

// HomeDir returns the account's home directory, defaulting under /home.
func (u User) HomeDir() string {
	if u.Home != "" {
		return u.Home
	}
	return filepath.Join("/home", u.Username)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// GetPasswords returns allowable passwords for the given username.
func (c *Configuration) GetPasswords(username string) []string {
	var out []string
	for _, u := range c.Users {
		if u.Username == username && u.Password != "" {
			out = append(out, u.Password)
		}
	}
	return out
}

// LookupUser finds the account for username.
func (c *Configuration) LookupUser(username string) (User, bool) {
	for _, u := range c.Users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}

// CreateRecording creates a session recording file with the given name.
func (c *Configuration) CreateRecording(name string) (afero.File, error) {
	if err := c.fs().MkdirAll(RecordingsDirName, 0700); err != nil {
		return nil, err
	}
	return c.fs().Create(filepath.Join(RecordingsDirName, name))
}

// OpenRecording opens a stored session recording by name.
func (c *Configuration) OpenRecording(name string) (afero.File, error) {
	return c.fs().Open(filepath.Join(RecordingsDirName, name))
}

// ListRecordings returns the names of stored session recordings in
// lexical order.
func (c *Configuration) ListRecordings() ([]string, error) {
	infos, err := afero.ReadDir(c.fs(), RecordingsDirName)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []string
	for _, info := range infos {
		if !info.IsDir() {
			out = append(out, info.Name())
		}
	}
	return out, nil
}

// PrivateKeyPem returns the bytes of the host private key.
func (c *Configuration) PrivateKeyPem() ([]byte, error) {
	return afero.ReadFile(c.fs(), PrivateKeyName)
}

// ReadAuthorizedKeys returns the contents of the configured
// authorized_keys file, or nil when none is configured.
func (c *Configuration) ReadAuthorizedKeys() ([]byte, error) {
	if c.AuthorizedKeys == "" {
		return nil, nil
	}
	return afero.ReadFile(c.fs(), c.AuthorizedKeys)
}

// OpenAppLog opens the application event log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadAppLog opens the application event log for reading.
func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built-in configuration backed by an in-memory
// filesystem. It lets the local shell run without an initialized
// configuration directory.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewMemMapFs()
	return out
}
