package xades

import (
	"bytes"
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
)

const nsExcC14N = "http://www.w3.org/2001/10/xml-exc-c14n#"

func qname(prefix, tag string) string {
	return prefix + ":" + tag
}

// appendReference escribe ds:Reference con sus Transforms (omitidos si no hay), DigestMethod y
// DigestValue bajo parent.
func appendReference(parent *etree.Element, ref *dsig.Reference) *etree.Element {
	refEl := parent.CreateElement(qname(dsig.PrefixDS, dsig.TagReference))
	if ref.ID != "" {
		refEl.CreateAttr(dsig.AttrID, ref.ID)
	}
	refEl.CreateAttr(dsig.AttrURI, ref.URI)
	if ref.Type != "" {
		refEl.CreateAttr(dsig.AttrType, ref.Type)
	}

	// Una referencia detached puede no tener transformaciones.
	if len(ref.Transforms) > 0 {
		transformsEl := refEl.CreateElement(qname(dsig.PrefixDS, dsig.TagTransforms))
		for _, t := range ref.Transforms {
			tEl := transformsEl.CreateElement(qname(dsig.PrefixDS, dsig.TagTransform))
			tEl.CreateAttr(dsig.AttrAlgorithm, t.Algorithm)
			if len(t.PrefixList) > 0 {
				incl := tEl.CreateElement("ec:" + dsig.TagInclusiveNamespaces)
				incl.CreateAttr("xmlns:ec", nsExcC14N)
				incl.CreateAttr(dsig.AttrPrefixList, strings.Join(t.PrefixList, " "))
			}
		}
	}

	dm := refEl.CreateElement(qname(dsig.PrefixDS, dsig.TagDigestMethod))
	dm.CreateAttr(dsig.AttrAlgorithm, ref.DigestAlgorithm.URI())
	dv := refEl.CreateElement(qname(dsig.PrefixDS, dsig.TagDigestValue))
	dv.SetText(ref.DigestBase64())
	return refEl
}

// serializeStandalone serializa una copia del elemento como documento independiente, copiando
// a su raíz las declaraciones de namespace heredadas de sus ancestros (la más cercana gana).
// Así la canonicalización de la copia coincide con la del elemento dentro del árbol.
func serializeStandalone(el *etree.Element) ([]byte, error) {
	cp := el.Copy()
	for p := el.Parent(); p != nil; p = p.Parent() {
		for _, attr := range p.Attr {
			if !isNamespaceDecl(attr) {
				continue
			}
			if cp.SelectAttr(attr.FullKey()) == nil {
				cp.CreateAttr(attr.FullKey(), attr.Value)
			}
		}
	}
	doc := etree.NewDocument()
	doc.SetRoot(cp)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isNamespaceDecl(attr etree.Attr) bool {
	return attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns")
}
