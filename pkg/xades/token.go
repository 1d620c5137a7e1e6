// Package xades: interfaz del token que produce el valor de firma de una firma XAdES detached.

package xades

import (
	"crypto/x509"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
)

// Token firma los bytes de SignedInfo ya canonicalizados.
type Token interface {
	// Certificate certificado hoja del firmante.
	Certificate() *x509.Certificate
	// KeyAlgorithm "RSA" o "ECDSA".
	KeyAlgorithm() string
	// Sign calcula el digest de dataToSign con alg y lo firma. ECDSA devuelve r||s (XMLDSig),
	// no DER.
	Sign(dataToSign []byte, alg dsig.DigestAlgorithm) ([]byte, error)
}
