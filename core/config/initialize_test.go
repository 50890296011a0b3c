package config

import (
	"encoding/pem"
	"io/ioutil"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, log.New(ioutil.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("CreateRecording", func(t *testing.T) {
		fd, err := cfg.CreateRecording("session.cast")
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("ListRecordings", func(t *testing.T) {
		names, err := cfg.ListRecordings()
		assert.Nil(t, err)
		assert.Equal(t, []string{"session.cast"}, names)
	})

	t.Run("OpenRecording", func(t *testing.T) {
		fd, err := cfg.OpenRecording("session.cast")
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("OpenAppLog", func(t *testing.T) {
		fd, err := cfg.OpenAppLog()
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("PrivateKeyPem", func(t *testing.T) {
		keyPem, err := cfg.PrivateKeyPem()
		assert.Nil(t, err)

		block, _ := pem.Decode(keyPem)
		if assert.NotNil(t, block, "host key is not PEM") {
			assert.Equal(t, "RSA PRIVATE KEY", block.Type)
		}
	})

	t.Run("ReadAuthorizedKeys", func(t *testing.T) {
		// The default config doesn't name an authorized_keys file.
		data, err := cfg.ReadAuthorizedKeys()
		assert.Nil(t, err)
		assert.Nil(t, data)
	})
}

func TestInitializeKeepsExistingFiles(t *testing.T) {
	tempDir := t.TempDir()
	quiet := log.New(ioutil.Discard, "", 0)

	first, err := Initialize(tempDir, quiet)
	if err != nil {
		t.Fatal(err)
	}
	firstKey, err := first.PrivateKeyPem()
	if err != nil {
		t.Fatal(err)
	}

	second, err := Initialize(tempDir, quiet)
	if err != nil {
		t.Fatal(err)
	}
	secondKey, err := second.PrivateKeyPem()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, firstKey, secondKey)
}
