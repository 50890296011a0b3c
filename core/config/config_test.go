package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	assert.NotNil(t, defaultConfig())
}

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, defaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Configuration {
		return &Configuration{
			ListenAddr: ":2022",
			Users: []User{
				{Username: "demo", Password: "demo"},
			},
		}
	}

	cases := map[string]struct {
		mutate  func(c *Configuration)
		wantErr string
	}{
		"valid": {
			mutate: func(c *Configuration) {},
		},
		"missing listen address": {
			mutate:  func(c *Configuration) { c.ListenAddr = "" },
			wantErr: "listen_addr",
		},
		"bad listen address": {
			mutate:  func(c *Configuration) { c.ListenAddr = "nope" },
			wantErr: "listen_addr",
		},
		"negative bandwidth limit": {
			mutate:  func(c *Configuration) { c.BandwidthLimit = -1 },
			wantErr: "bandwidth_limit",
		},
		"duplicate usernames": {
			mutate: func(c *Configuration) {
				c.Users = append(c.Users, User{Username: "demo"})
			},
			wantErr: "users",
		},
		"user without name": {
			mutate: func(c *Configuration) {
				c.Users = append(c.Users, User{Password: "hunter2"})
			},
			wantErr: "username",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestGetPasswords(t *testing.T) {
	cfg := &Configuration{
		Users: []User{
			{Username: "amy", Password: "letmein"},
			{Username: "bob"},
		},
	}

	assert.Equal(t, []string{"letmein"}, cfg.GetPasswords("amy"))
	assert.Empty(t, cfg.GetPasswords("bob"))
	assert.Empty(t, cfg.GetPasswords("eve"))
}

func TestLookupUser(t *testing.T) {
	cfg := &Configuration{
		Users: []User{
			{Username: "amy", Home: "/srv/amy"},
		},
	}

	amy, ok := cfg.LookupUser("amy")
	assert.True(t, ok)
	assert.Equal(t, "/srv/amy", amy.HomeDir())

	_, ok = cfg.LookupUser("eve")
	assert.False(t, ok)
}

func TestUserHomeDir(t *testing.T) {
	assert.Equal(t, "/home/amy", User{Username: "amy"}.HomeDir())
	assert.Equal(t, "/srv/amy", User{Username: "amy", Home: "/srv/amy"}.HomeDir())
}
