package xades

import (
	"crypto/x509"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// RandomIDGenerator genera "id-<uuid v4 en hex>".
type RandomIDGenerator struct{}

// GenerateID implementa dsig.IDGenerator.
func (RandomIDGenerator) GenerateID() string {
	u := uuid.New()
	return "id-" + hex.EncodeToString(u[:])
}

// CertificateIDGenerator deriva el identificador del certificado firmante y la hora de firma,
// de modo que reconstruir la misma firma produce los mismos Ids.
type CertificateIDGenerator struct {
	Certificate *x509.Certificate
	SigningTime time.Time
}

// GenerateID implementa dsig.IDGenerator.
func (g CertificateIDGenerator) GenerateID() string {
	var name []byte
	if g.Certificate != nil {
		name = append(name, g.Certificate.Raw...)
	}
	name = append(name, g.SigningTime.UTC().Format(time.RFC3339Nano)...)
	u := uuid.NewSHA1(uuid.NameSpaceOID, name)
	return "id-" + hex.EncodeToString(u[:])
}
