// Package xades construye la parte "detached" de una firma XAdES: un ds:Manifest por documento
// desacoplado, la referencia externa que apunta a cada manifiesto y, sobre ellas, el bloque
// ds:Signature con SignedInfo y QualifyingProperties listo para ser firmado por un token externo.
package xades

import (
	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
)

// BuildContext estado de una única construcción de firma. Se crea por llamada y se pasa
// explícitamente a cada paso; nunca se comparte entre construcciones concurrentes.
type BuildContext struct {
	Root      *etree.Document
	Signature *etree.Element
	// Object contenedor ds:Object de los manifiestos; se crea bajo demanda.
	Object                 *etree.Element
	CanonicalizationMethod string
}

// NewBuildContext crea el contexto. Si root tiene elemento raíz, ds:Signature se agrega como su
// último hijo; si root es nil o está vacío, ds:Signature es la raíz de un documento nuevo.
// c14nMethod vacío equivale a C14N exclusiva (método por defecto de las firmas detached).
func NewBuildContext(root *etree.Document, c14nMethod string) *BuildContext {
	if c14nMethod == "" {
		c14nMethod = dsig.C14NExclusive
	}
	if root == nil {
		root = etree.NewDocument()
		root.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}
	var sig *etree.Element
	if parent := root.Root(); parent != nil {
		sig = parent.CreateElement(qname(dsig.PrefixDS, dsig.TagSignature))
	} else {
		sig = root.CreateElement(qname(dsig.PrefixDS, dsig.TagSignature))
	}
	sig.CreateAttr("xmlns:"+dsig.PrefixDS, dsig.NamespaceDS)
	return &BuildContext{Root: root, Signature: sig, CanonicalizationMethod: c14nMethod}
}

func (bc *BuildContext) object() *etree.Element {
	if bc.Object == nil {
		bc.Object = bc.Signature.CreateElement(qname(dsig.PrefixDS, dsig.TagObject))
	}
	return bc.Object
}

// Options opciones comunes de los constructores.
type Options struct {
	// BinaryPassthrough: los documentos no XML se referencian sin transformaciones y se digiere
	// el contenido crudo. Por defecto todo documento se canonicaliza.
	BinaryPassthrough bool
	// Logger nil = sin logs.
	Logger *zerolog.Logger
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}
