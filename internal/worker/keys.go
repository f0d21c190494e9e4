package worker

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

const rsaKeyBits = 4096

// GenerateRSAKeys writes a fresh RSA keypair into dir as
// microdata_private_key.pem and microdata_public_key.pem. Existing keys are
// never overwritten.
func GenerateRSAKeys(dir string) error {
	privatePath := filepath.Join(dir, "microdata_private_key.pem")
	publicPath := filepath.Join(dir, "microdata_public_key.pem")
	for _, path := range []string{privatePath, publicPath} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("key file %s already exists", path)
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return fmt.Errorf("generate RSA key: %w", err)
	}

	privateBlock := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	if err := writePEM(privatePath, privateBlock, 0600); err != nil {
		return err
	}

	publicBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		os.Remove(privatePath)
		return fmt.Errorf("marshal public key: %w", err)
	}
	publicBlock := &pem.Block{Type: "PUBLIC KEY", Bytes: publicBytes}
	if err := writePEM(publicPath, publicBlock, 0644); err != nil {
		os.Remove(privatePath)
		return err
	}
	return nil
}

func writePEM(path string, block *pem.Block, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := pem.Encode(f, block); err != nil {
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
