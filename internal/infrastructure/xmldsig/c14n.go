// Package xmldsig implementa el pipeline de transformaciones (canonicalización XML) y el
// motor de digest usados para calcular los DigestValue de las referencias.
package xmldsig

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	dsigxml "github.com/russellhaering/goxmldsig"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
)

// Canonicalize aplica un único método de canonicalización sobre bytes XML.
// prefixList solo aplica a la C14N exclusiva (InclusiveNamespaces PrefixList).
// Se canonicaliza el documento completo: las instrucciones de procesamiento (y, en las variantes
// con comentarios, los comentarios) fuera del elemento raíz forman parte de la salida.
func Canonicalize(algorithm string, prefixList []string, content []byte) ([]byte, error) {
	if !dsig.IsCanonicalization(algorithm) {
		return nil, fmt.Errorf("%w: %q", dsig.ErrUnsupportedTransform, algorithm)
	}
	entities, err := declaredEntities(content)
	if err != nil {
		return nil, err
	}
	if err := checkWellFormed(content, entities); err != nil {
		return nil, fmt.Errorf("%w: %v", dsig.ErrCanonicalization, err)
	}

	normalized := normalizeAttrWhitespace(content)
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	doc.ReadSettings.Entity = entities
	if err := doc.ReadFromBytes(normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", dsig.ErrCanonicalization, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: documento sin raíz", dsig.ErrCanonicalization)
	}

	var body []byte
	if algorithm == dsig.C14NExclusive && len(prefixList) == 0 && !declaresDefaultNamespace(root) {
		body, err = c14n.Canonicalize(newDecoder(normalized, entities))
	} else {
		body, err = canonicalizerFor(algorithm, prefixList).Canonicalize(root)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dsig.ErrCanonicalization, err)
	}
	return withDocumentNodes(doc, body, withComments(algorithm)), nil
}

func canonicalizerFor(algorithm string, prefixList []string) dsigxml.Canonicalizer {
	prefixes := strings.Join(prefixList, " ")
	switch algorithm {
	case dsig.C14NExclusiveWithComments:
		return dsigxml.MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList(prefixes)
	case dsig.C14NInclusive:
		return dsigxml.MakeC14N10RecCanonicalizer()
	case dsig.C14NInclusiveWithComments:
		return dsigxml.MakeC14N10WithCommentsCanonicalizer()
	case dsig.C14N11:
		return dsigxml.MakeC14N11Canonicalizer()
	default:
		return dsigxml.MakeC14N10ExclusiveCanonicalizerWithPrefixList(prefixes)
	}
}

// declaresDefaultNamespace indica si algún elemento declara xmlns="...". ucarion/c14n trata los
// atributos sin prefijo como usuarios del namespace por defecto, así que esos documentos van por
// goxmldsig.
func declaresDefaultNamespace(el *etree.Element) bool {
	for _, attr := range el.Attr {
		if attr.Space == "" && attr.Key == "xmlns" && attr.Value != "" {
			return true
		}
	}
	for _, child := range el.ChildElements() {
		if declaresDefaultNamespace(child) {
			return true
		}
	}
	return false
}

func withComments(algorithm string) bool {
	return algorithm == dsig.C14NExclusiveWithComments || algorithm == dsig.C14NInclusiveWithComments
}

// ApplyTransforms aplica las transformaciones en el orden declarado; la salida de cada una es la
// entrada de la siguiente. Sin transformaciones devuelve el contenido sin cambios.
// Cualquier fallo se devuelve: nunca se digiere el contenido sin canonicalizar.
func ApplyTransforms(transforms []dsig.Transform, content []byte) ([]byte, error) {
	out := content
	for i, t := range transforms {
		var err error
		out, err = Canonicalize(t.Algorithm, t.PrefixList, out)
		if err != nil {
			return nil, fmt.Errorf("xmldsig: transformación %d: %w", i, err)
		}
	}
	return out, nil
}

// ReadContent lee el documento completo en memoria.
func ReadContent(doc dsig.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: referencia sin contenido", dsig.ErrContentRead)
	}
	rc, err := doc.Open()
	if err != nil {
		return nil, wrapContentRead(doc, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, wrapContentRead(doc, err)
	}
	return data, nil
}

func wrapContentRead(doc dsig.Document, err error) error {
	if errors.Is(err, dsig.ErrContentRead) {
		return err
	}
	return fmt.Errorf("%w: %q: %v", dsig.ErrContentRead, doc.Name(), err)
}
