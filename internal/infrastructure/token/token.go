// Token de firma en memoria: certificado X.509 + llave privada RSA o ECDSA, cargado desde
// .p12 (PKCS#12) o par PEM.

package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/pkg/xades"
)

// ErrUnsupportedKey llave privada que no es RSA ni ECDSA o no corresponde al certificado.
var ErrUnsupportedKey = errors.New("token: llave privada no soportada")

var cryptoHashes = map[dsig.DigestAlgorithm]crypto.Hash{
	dsig.SHA1:   crypto.SHA1,
	dsig.SHA224: crypto.SHA224,
	dsig.SHA256: crypto.SHA256,
	dsig.SHA384: crypto.SHA384,
	dsig.SHA512: crypto.SHA512,
}

// KeyToken implementa xades.Token con la llave en memoria.
type KeyToken struct {
	cert *x509.Certificate
	key  crypto.Signer
}

// New crea el token validando que la llave corresponda al certificado.
func New(cert *x509.Certificate, key crypto.PrivateKey) (*KeyToken, error) {
	if cert == nil {
		return nil, fmt.Errorf("token: certificado requerido")
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
	switch pub := signer.Public().(type) {
	case *rsa.PublicKey:
		if !pub.Equal(cert.PublicKey) {
			return nil, fmt.Errorf("%w: la llave RSA no corresponde al certificado", ErrUnsupportedKey)
		}
	case *ecdsa.PublicKey:
		if !pub.Equal(cert.PublicKey) {
			return nil, fmt.Errorf("%w: la llave ECDSA no corresponde al certificado", ErrUnsupportedKey)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
	return &KeyToken{cert: cert, key: signer}, nil
}

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12(path, password string) (*KeyToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("token: leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("token: decodificar p12: %w", err)
	}
	return New(cert, priv)
}

// LoadFromPEM carga certificado y llave desde archivos PEM (separados, o combinados si keyPath
// es vacío).
func LoadFromPEM(certPath, keyPath string) (*KeyToken, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("token: cargar PEM: %w", err)
	}
	cert, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("token: parsear certificado: %w", err)
	}
	return New(cert, pair.PrivateKey)
}

// Certificate implementa xades.Token.
func (t *KeyToken) Certificate() *x509.Certificate { return t.cert }

// KeyAlgorithm implementa xades.Token.
func (t *KeyToken) KeyAlgorithm() string {
	if _, ok := t.key.Public().(*ecdsa.PublicKey); ok {
		return "ECDSA"
	}
	return "RSA"
}

// Sign implementa xades.Token.
func (t *KeyToken) Sign(dataToSign []byte, alg dsig.DigestAlgorithm) ([]byte, error) {
	h, ok := cryptoHashes[alg]
	if !ok {
		return nil, fmt.Errorf("%w: firma con %s", dsig.ErrUnsupportedAlgorithm, alg)
	}
	hasher := h.New()
	hasher.Write(dataToSign)
	digest := hasher.Sum(nil)

	switch key := t.key.(type) {
	case *rsa.PrivateKey:
		sig, err := rsa.SignPKCS1v15(rand.Reader, key, h, digest)
		if err != nil {
			return nil, fmt.Errorf("token: firmar RSA: %w", err)
		}
		return sig, nil
	case *ecdsa.PrivateKey:
		r, s, err := ecdsa.Sign(rand.Reader, key, digest)
		if err != nil {
			return nil, fmt.Errorf("token: firmar ECDSA: %w", err)
		}
		size := (key.Curve.Params().BitSize + 7) / 8
		out := make([]byte, 2*size)
		r.FillBytes(out[:size])
		s.FillBytes(out[size:])
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, t.key)
	}
}

var _ xades.Token = (*KeyToken)(nil)
