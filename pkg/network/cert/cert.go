// Package cert creates and checks the self-signed Ed25519 certificates chain
// query nodes present. Clients trust a node by pinning its public key instead
// of relying on a CA.
package cert

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"
)

// DNSNamePrefix starts the DNS name derived from a node key.
const DNSNamePrefix = "n"

var (
	ErrInvalidCertificate = errors.New("cert: invalid certificate")
	ErrKeyMismatch        = errors.New("cert: public key does not match pinned key")
)

var base32Encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Config holds the node key and the lifetime of generated certificates.
type Config struct {
	PublicKey          ed25519.PublicKey
	PrivateKey         ed25519.PrivateKey
	CertValidityPeriod time.Duration
}

type Generator struct {
	config Config
}

func NewGenerator(config Config) *Generator {
	return &Generator{config: config}
}

// EncodePubKeyToDNS derives the certificate DNS name of a key: DNSNamePrefix
// followed by the unpadded lowercase base32 of the key.
func EncodePubKeyToDNS(pubKey ed25519.PublicKey) string {
	return DNSNamePrefix + base32Encoding.EncodeToString(pubKey)
}

// GenerateCertificate creates a self-signed certificate for the node key,
// valid from now for CertValidityPeriod.
func (g *Generator) GenerateCertificate() (*tls.Certificate, error) {
	dnsName := EncodePubKeyToDNS(g.config.PublicKey)

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{CommonName: dnsName},
		DNSNames:              []string{dnsName},
		NotBefore:             now,
		NotAfter:              now.Add(g.config.CertValidityPeriod),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		SignatureAlgorithm:    x509.PureEd25519,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, g.config.PublicKey, g.config.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	return &tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  g.config.PrivateKey,
		Leaf:        leaf,
	}, nil
}

// Validator checks that a certificate was produced by Generator.
type Validator struct {
	now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// ValidateCertificate checks the signature algorithm, that the single DNS
// name encodes the certificate key and the validity period.
func (v *Validator) ValidateCertificate(cert *x509.Certificate) error {
	if cert.SignatureAlgorithm != x509.PureEd25519 {
		return fmt.Errorf("%w: signature algorithm is %s", ErrInvalidCertificate, cert.SignatureAlgorithm)
	}
	pubKey, err := v.ExtractPublicKey(cert)
	if err != nil {
		return err
	}
	if len(cert.DNSNames) != 1 {
		return fmt.Errorf("%w: want one DNS name, got %d", ErrInvalidCertificate, len(cert.DNSNames))
	}
	dnsName := cert.DNSNames[0]
	if !strings.HasPrefix(dnsName, DNSNamePrefix) || dnsName != EncodePubKeyToDNS(pubKey) {
		return fmt.Errorf("%w: DNS name %s does not match public key", ErrInvalidCertificate, dnsName)
	}

	now := v.now()
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("%w: certificate is not yet valid", ErrInvalidCertificate)
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("%w: certificate has expired", ErrInvalidCertificate)
	}
	return nil
}

func (v *Validator) ExtractPublicKey(cert *x509.Certificate) (ed25519.PublicKey, error) {
	pubKey, ok := cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is not Ed25519", ErrInvalidCertificate)
	}
	return pubKey, nil
}

// PinnedVerifier returns a tls.Config VerifyPeerCertificate callback that
// accepts only a valid certificate for the pinned key.
func PinnedVerifier(pinned ed25519.PublicKey) func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	validator := NewValidator()
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("%w: no peer certificate", ErrInvalidCertificate)
		}
		c, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
		}
		if err := validator.ValidateCertificate(c); err != nil {
			return err
		}
		pubKey, err := validator.ExtractPublicKey(c)
		if err != nil {
			return err
		}
		if !bytes.Equal(pubKey, pinned) {
			return ErrKeyMismatch
		}
		return nil
	}
}

// ServerTLSConfig is the TLS 1.3 configuration of a node serving cert.
func ServerTLSConfig(cert *tls.Certificate, protos []string) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		NextProtos:   protos,
		MinVersion:   tls.VersionTLS13,
	}
}

// ClientTLSConfig is the TLS 1.3 configuration of a client trusting only the
// node with the pinned key. Chain verification is replaced by the pin.
func ClientTLSConfig(pinned ed25519.PublicKey, protos []string) *tls.Config {
	return &tls.Config{
		NextProtos:            protos,
		MinVersion:            tls.VersionTLS13,
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: PinnedVerifier(pinned),
	}
}

// LoadOrGenerateKey reads a hex encoded Ed25519 seed from path, creating the
// file with a fresh seed when it does not exist.
func LoadOrGenerateKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode key file %s: %w", path, err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("key file %s: want %d byte seed, got %d", path, ed25519.SeedSize, len(seed))
		}
		return ed25519.NewKeyFromSeed(seed), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(priv.Seed())+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write key file %s: %w", path, err)
	}
	return priv, nil
}
