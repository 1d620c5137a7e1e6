package dsig

import (
	"fmt"
	"strings"
)

// DigestAlgorithm conjunto cerrado de algoritmos de digest soportados.
type DigestAlgorithm int

const (
	DigestUnknown DigestAlgorithm = iota
	SHA1
	SHA224
	SHA256
	SHA384
	SHA512
	SHA3_224
	SHA3_256
	SHA3_384
	SHA3_512
	RIPEMD160
)

type digestInfo struct {
	name string
	uri  string
	size int
}

var digestAlgorithms = map[DigestAlgorithm]digestInfo{
	SHA1:      {"SHA1", "http://www.w3.org/2000/09/xmldsig#sha1", 20},
	SHA224:    {"SHA224", "http://www.w3.org/2001/04/xmldsig-more#sha224", 28},
	SHA256:    {"SHA256", "http://www.w3.org/2001/04/xmlenc#sha256", 32},
	SHA384:    {"SHA384", "http://www.w3.org/2001/04/xmldsig-more#sha384", 48},
	SHA512:    {"SHA512", "http://www.w3.org/2001/04/xmlenc#sha512", 64},
	SHA3_224:  {"SHA3-224", "http://www.w3.org/2007/05/xmldsig-more#sha3-224", 28},
	SHA3_256:  {"SHA3-256", "http://www.w3.org/2007/05/xmldsig-more#sha3-256", 32},
	SHA3_384:  {"SHA3-384", "http://www.w3.org/2007/05/xmldsig-more#sha3-384", 48},
	SHA3_512:  {"SHA3-512", "http://www.w3.org/2007/05/xmldsig-more#sha3-512", 64},
	RIPEMD160: {"RIPEMD160", "http://www.w3.org/2001/04/xmlenc#ripemd160", 20},
}

// Valid indica si el valor pertenece al conjunto soportado.
func (a DigestAlgorithm) Valid() bool {
	_, ok := digestAlgorithms[a]
	return ok
}

func (a DigestAlgorithm) String() string {
	if info, ok := digestAlgorithms[a]; ok {
		return info.name
	}
	return fmt.Sprintf("DigestAlgorithm(%d)", int(a))
}

// URI devuelve el identificador XMLDSig usado en ds:DigestMethod/@Algorithm.
func (a DigestAlgorithm) URI() string {
	return digestAlgorithms[a].uri
}

// Size tamaño exacto del digest en bytes (0 si el algoritmo no es válido).
func (a DigestAlgorithm) Size() int {
	return digestAlgorithms[a].size
}

// ParseDigestAlgorithm acepta el nombre con o sin guiones ("SHA256", "sha-256", "SHA3-256").
func ParseDigestAlgorithm(name string) (DigestAlgorithm, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", ""))
	for alg, info := range digestAlgorithms {
		if strings.ReplaceAll(info.name, "-", "") == norm {
			return alg, nil
		}
	}
	return DigestUnknown, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
}

// DigestAlgorithmFromURI resuelve el algoritmo a partir del identificador XMLDSig.
func DigestAlgorithmFromURI(uri string) (DigestAlgorithm, error) {
	for alg, info := range digestAlgorithms {
		if info.uri == uri {
			return alg, nil
		}
	}
	return DigestUnknown, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, uri)
}
