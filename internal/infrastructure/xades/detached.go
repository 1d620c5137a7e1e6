package xades

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
)

// DetachedResult resultado de una construcción detached. Manifests[i] y References[i]
// corresponden al documento i de la cadena.
type DetachedResult struct {
	DeterministicID string
	Object          *etree.Element
	Manifests       []*dsig.Manifest
	// References referencias externas (SignedInfo), ya digeridas.
	References []dsig.Reference
}

// DetachedBuilder recorre la cadena de documentos y produce un manifiesto y una referencia
// externa por documento.
type DetachedBuilder struct {
	manifests *ManifestAssembler
	log       zerolog.Logger
}

// NewDetachedBuilder crea el constructor.
func NewDetachedBuilder(opts Options) *DetachedBuilder {
	return &DetachedBuilder{manifests: NewManifestAssembler(opts), log: opts.logger()}
}

// Build genera el identificador determinista con ids y construye, para cada documento i:
// el manifiesto i bajo un ds:Object nuevo de la firma y la referencia externa i que lo apunta.
// El documento 0 usa el identificador tal cual; el documento i>0 usa "<id>-<i+1>", de modo que
// Ids y URIs son únicos dentro de la firma. Ante cualquier error no devuelve resultado y el
// ds:Object se retira del árbol.
func (b *DetachedBuilder) Build(bc *BuildContext, chain dsig.Chain, ids dsig.IDGenerator, alg dsig.DigestAlgorithm) (*DetachedResult, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %s", dsig.ErrUnsupportedAlgorithm, alg)
	}
	if ids == nil {
		return nil, fmt.Errorf("xades: generador de identificadores requerido")
	}
	deterministicID := ids.GenerateID()

	previous := bc.Object
	bc.Object = nil
	object := bc.object()
	rollback := func() {
		bc.Signature.RemoveChild(object)
		bc.Object = previous
	}

	result := &DetachedResult{
		DeterministicID: deterministicID,
		Object:          object,
		Manifests:       make([]*dsig.Manifest, 0, len(chain)),
		References:      make([]dsig.Reference, 0, len(chain)),
	}
	err := dsig.ForEachDocument(chain, func(i int, doc dsig.Document) error {
		docID := DocumentID(deterministicID, i)
		manifest, _, err := b.manifests.BuildManifest(bc, doc, docID, alg)
		if err != nil {
			return err
		}
		ref := BuildOuterReference(docID, manifest.Contents, alg)
		if err := DigestReference(&ref); err != nil {
			return err
		}
		result.Manifests = append(result.Manifests, manifest)
		result.References = append(result.References, ref)
		return nil
	})
	if err != nil {
		rollback()
		return nil, err
	}

	b.log.Debug().
		Str("id", deterministicID).
		Int("documents", len(chain)).
		Msg("xades: manifiestos detached construidos")
	return result, nil
}

// DocumentID identificador del documento i dentro de una firma.
func DocumentID(deterministicID string, i int) string {
	if i == 0 {
		return deterministicID
	}
	return fmt.Sprintf("%s-%d", deterministicID, i+1)
}

// ObjectXML serializa el ds:Object de los manifiestos como documento independiente.
func (r *DetachedResult) ObjectXML() ([]byte, error) {
	return serializeStandalone(r.Object)
}
