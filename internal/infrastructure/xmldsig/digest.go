package xmldsig

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
)

var hashConstructors = map[dsig.DigestAlgorithm]func() hash.Hash{
	dsig.SHA1:      sha1.New,
	dsig.SHA224:    sha256.New224,
	dsig.SHA256:    sha256.New,
	dsig.SHA384:    sha512.New384,
	dsig.SHA512:    sha512.New,
	dsig.SHA3_224:  sha3.New224,
	dsig.SHA3_256:  sha3.New256,
	dsig.SHA3_384:  sha3.New384,
	dsig.SHA3_512:  sha3.New512,
	dsig.RIPEMD160: ripemd160.New,
}

// NewHash devuelve un hash.Hash nuevo para el algoritmo.
func NewHash(alg dsig.DigestAlgorithm) (hash.Hash, error) {
	newHash, ok := hashConstructors[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dsig.ErrUnsupportedAlgorithm, alg)
	}
	return newHash(), nil
}

// Digest calcula el digest crudo (sin codificar) de content. La longitud es siempre alg.Size().
func Digest(alg dsig.DigestAlgorithm, content []byte) ([]byte, error) {
	h, err := NewHash(alg)
	if err != nil {
		return nil, err
	}
	h.Write(content)
	return h.Sum(nil), nil
}

// DigestReference lee el contenido de la referencia, aplica sus transformaciones y fija DigestValue.
// Si algo falla DigestValue queda sin asignar.
func DigestReference(ref *dsig.Reference) error {
	content, err := ReadContent(ref.Contents)
	if err != nil {
		return err
	}
	canonical, err := ApplyTransforms(ref.Transforms, content)
	if err != nil {
		return err
	}
	value, err := Digest(ref.DigestAlgorithm, canonical)
	if err != nil {
		return err
	}
	ref.DigestValue = value
	return nil
}
