// Package dsig contiene el modelo declarativo de XML-Signature (Reference, Transform, Manifest)
// usado para construir firmas XAdES con documentos desacoplados (detached).
// No tiene dependencias externas.
package dsig

// Namespaces XMLDSig / XAdES.
const (
	NamespaceDS    = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceXAdES = "http://uri.etsi.org/01903/v1.3.2#"
	PrefixDS       = "ds"
	PrefixXAdES    = "xades"
)

// Identificadores de canonicalización (usados como Transform y como CanonicalizationMethod).
const (
	C14NExclusive             = "http://www.w3.org/2001/10/xml-exc-c14n#"
	C14NExclusiveWithComments = "http://www.w3.org/2001/10/xml-exc-c14n#WithComments"
	C14NInclusive             = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	C14NInclusiveWithComments = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315#WithComments"
	C14N11                    = "http://www.w3.org/2006/12/xml-c14n11"
)

// Tipos de referencia.
const (
	TypeManifest         = "http://www.w3.org/2000/09/xmldsig#Manifest"
	TypeSignedProperties = "http://uri.etsi.org/01903#SignedProperties"
)

// Nombres de elementos y atributos XMLDSig.
const (
	TagSignature              = "Signature"
	TagSignedInfo             = "SignedInfo"
	TagCanonicalizationMethod = "CanonicalizationMethod"
	TagSignatureMethod        = "SignatureMethod"
	TagSignatureValue         = "SignatureValue"
	TagKeyInfo                = "KeyInfo"
	TagX509Data               = "X509Data"
	TagX509Certificate        = "X509Certificate"
	TagObject                 = "Object"
	TagManifest               = "Manifest"
	TagReference              = "Reference"
	TagTransforms             = "Transforms"
	TagTransform              = "Transform"
	TagDigestMethod           = "DigestMethod"
	TagDigestValue            = "DigestValue"
	TagInclusiveNamespaces    = "InclusiveNamespaces"

	AttrID         = "Id"
	AttrURI        = "URI"
	AttrType       = "Type"
	AttrAlgorithm  = "Algorithm"
	AttrPrefixList = "PrefixList"
)

// IsCanonicalization indica si el algoritmo es uno de los métodos de canonicalización conocidos.
func IsCanonicalization(algorithm string) bool {
	switch algorithm {
	case C14NExclusive, C14NExclusiveWithComments, C14NInclusive, C14NInclusiveWithComments, C14N11:
		return true
	}
	return false
}
