package xades

import (
	"fmt"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/internal/infrastructure/xmldsig"
)

// BuildOuterReference crea la referencia de SignedInfo que apunta al manifiesto:
// Id "xades-<id>-manifest-reference", URI "#xades-<id>-manifest", tipo Manifest y una
// transformación C14N exclusiva. El DigestValue se calcula con DigestReference.
func BuildOuterReference(deterministicID string, manifestDoc dsig.Document, alg dsig.DigestAlgorithm) dsig.Reference {
	return dsig.Reference{
		ID:              dsig.ManifestReferenceID(deterministicID),
		URI:             dsig.ManifestURI(deterministicID),
		Type:            dsig.TypeManifest,
		Transforms:      []dsig.Transform{{Algorithm: dsig.C14NExclusive}},
		DigestAlgorithm: alg,
		Contents:        manifestDoc,
	}
}

// DigestReference calcula el DigestValue de una referencia externa sobre los bytes
// canonicalizados de su contenido.
func DigestReference(ref *dsig.Reference) error {
	if ref.Contents == nil {
		return fmt.Errorf("%w: referencia %s sin contenido", dsig.ErrContentRead, ref.ID)
	}
	if err := xmldsig.DigestReference(ref); err != nil {
		return fmt.Errorf("xades: referencia %s: %w", ref.ID, err)
	}
	return nil
}
