package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"log"
	"os"

	"github.com/spf13/afero"
)

const hostKeyBits = 2048

// Initialize scaffolds a configuration directory: the default
// config.yaml, a generated SSH host key, and the recordings directory.
// Files that already exist are kept, so re-running is safe. It returns
// the loaded result.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	fs := afero.NewBasePathFs(afero.NewOsFs(), dir)

	configContents := func() ([]byte, error) {
		return defaultConfigData, nil
	}
	if err := writeIfMissing(fs, ConfigurationName, 0644, logger, configContents); err != nil {
		return nil, err
	}

	if err := writeIfMissing(fs, PrivateKeyName, 0600, logger, generateHostKey); err != nil {
		return nil, err
	}

	if err := fs.MkdirAll(RecordingsDirName, 0700); err != nil {
		return nil, err
	}

	return Load(dir)
}

func writeIfMissing(fs afero.Fs, name string, perm os.FileMode, logger *log.Logger, contents func() ([]byte, error)) error {
	exists, err := afero.Exists(fs, name)
	if err != nil {
		return err
	}
	if exists {
		logger.Printf("Keeping existing %s", name)
		return nil
	}

	data, err := contents()
	if err != nil {
		return err
	}
	logger.Printf("Creating %s", name)
	return afero.WriteFile(fs, name, data, perm)
}

// generateHostKey creates a PEM encoded RSA host key.
func generateHostKey() ([]byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, hostKeyBits)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), nil
}
