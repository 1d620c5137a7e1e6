package xades

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/internal/infrastructure/xmldsig"
)

// ManifestAssembler construye un ds:Manifest por documento desacoplado.
type ManifestAssembler struct {
	binaryPassthrough bool
	log               zerolog.Logger
}

// NewManifestAssembler crea el ensamblador.
func NewManifestAssembler(opts Options) *ManifestAssembler {
	return &ManifestAssembler{binaryPassthrough: opts.BinaryPassthrough, log: opts.logger()}
}

// BuildManifest agrega bajo el ds:Object del contexto:
//
//	<ds:Manifest Id="xades-<id>-manifest">
//	  <ds:Reference URI="<nombre>" Type="<mime>">
//	    <ds:Transforms><ds:Transform Algorithm="<c14n exclusiva>"/></ds:Transforms>
//	    <ds:DigestMethod Algorithm="<uri>"/>
//	    <ds:DigestValue>base64</ds:DigestValue>
//	  </ds:Reference>
//	</ds:Manifest>
//
// y devuelve el modelo del manifiesto cuyo Contents es el elemento serializado. Un documento sin
// nombre produce URI="". Si el digest falla no queda ningún manifiesto parcial en el árbol.
func (a *ManifestAssembler) BuildManifest(bc *BuildContext, doc dsig.Document, deterministicID string, alg dsig.DigestAlgorithm) (*dsig.Manifest, *etree.Element, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("%w: documento nil", dsig.ErrChainTraversal)
	}
	if !alg.Valid() {
		return nil, nil, fmt.Errorf("%w: %s", dsig.ErrUnsupportedAlgorithm, alg)
	}

	// La URI de un documento desacoplado nunca puede apuntar dentro de la propia firma.
	if name := doc.Name(); strings.HasPrefix(name, "#") || dsig.IsXPointer(name) {
		return nil, nil, fmt.Errorf("%w: %q apunta al mismo documento", dsig.ErrInvalidURI, name)
	}

	manifestID := dsig.ManifestID(deterministicID)
	ref := dsig.Reference{
		URI:             doc.Name(),
		Type:            doc.MimeType().String(),
		Transforms:      a.transformsFor(doc),
		DigestAlgorithm: alg,
		Contents:        doc,
	}
	a.log.Trace().
		Str("manifest_id", manifestID).
		Str("uri", ref.URI).
		Int("transforms", len(ref.Transforms)).
		Msg("xades: calculando digest de referencia interna")

	// El digest se resuelve antes de tocar el árbol: así un fallo no deja elementos a medias.
	if err := xmldsig.DigestReference(&ref); err != nil {
		return nil, nil, fmt.Errorf("xades: manifiesto %s (documento %q): %w", manifestID, ref.URI, err)
	}

	object := bc.object()
	manifestEl := object.CreateElement(qname(dsig.PrefixDS, dsig.TagManifest))
	manifestEl.CreateAttr(dsig.AttrID, manifestID)
	appendReference(manifestEl, &ref)

	contents, err := serializeStandalone(manifestEl)
	if err != nil {
		object.RemoveChild(manifestEl)
		return nil, nil, fmt.Errorf("xades: serializando manifiesto %s: %w", manifestID, err)
	}

	manifest := &dsig.Manifest{
		ID:         manifestID,
		Contents:   dsig.NewInMemoryDocument(manifestID, dsig.MimeTypeXML, contents),
		References: []dsig.Reference{ref},
	}
	a.log.Debug().
		Str("manifest_id", manifestID).
		Str("uri", ref.URI).
		Str("digest", ref.DigestBase64()).
		Msg("xades: manifiesto construido")
	return manifest, manifestEl, nil
}

func (a *ManifestAssembler) transformsFor(doc dsig.Document) []dsig.Transform {
	if a.binaryPassthrough && !doc.MimeType().IsXML() {
		return nil
	}
	return []dsig.Transform{{Algorithm: dsig.C14NExclusive}}
}
