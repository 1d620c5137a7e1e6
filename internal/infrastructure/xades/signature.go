// Ensamblado de ds:Signature XAdES-BES con referencias a manifiestos detached.
// El valor de firma lo produce un token externo: DataToSign devuelve los bytes a firmar y
// Draft.Finish inserta el ds:SignatureValue resultante.

package xades

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/internal/infrastructure/xmldsig"
)

// ErrInvalidParameters parámetros de firma incompletos o inconsistentes.
var ErrInvalidParameters = errors.New("xades: parámetros de firma inválidos")

// ErrDraftFinished el borrador ya recibió su valor de firma.
var ErrDraftFinished = errors.New("xades: la firma ya fue completada")

const signingTimeLayout = "2006-01-02T15:04:05Z"

// SignatureParameters parámetros de una firma detached.
type SignatureParameters struct {
	DigestAlgorithm dsig.DigestAlgorithm
	// CanonicalizationMethod de SignedInfo; vacío = C14N exclusiva.
	CanonicalizationMethod string
	SigningCertificate     *x509.Certificate
	SigningTime            time.Time
	// IDs nil = CertificateIDGenerator sobre el certificado y la hora de firma.
	IDs dsig.IDGenerator
	// RootDocument XML opcional al que se agrega ds:Signature como último hijo de la raíz.
	RootDocument []byte
}

// Draft firma construida a la espera del valor de firma.
type Draft struct {
	DeterministicID string
	SignatureMethod string
	// References todas las referencias de SignedInfo (manifiestos y SignedProperties).
	References []dsig.Reference
	Manifests  []*dsig.Manifest
	// DataToSign SignedInfo canonicalizado.
	DataToSign []byte

	doc        *etree.Document
	signature  *etree.Element
	signedInfo *etree.Element
	finished   bool
}

// SignatureBuilder arma la estructura ds:Signature completa.
type SignatureBuilder struct {
	detached *DetachedBuilder
	log      zerolog.Logger
}

// NewSignatureBuilder crea el constructor.
func NewSignatureBuilder(detached *DetachedBuilder, opts Options) *SignatureBuilder {
	return &SignatureBuilder{detached: detached, log: opts.logger()}
}

// DataToSign construye la firma sobre la cadena de documentos y devuelve el borrador con los
// bytes que el token debe firmar.
func (s *SignatureBuilder) DataToSign(params SignatureParameters, chain dsig.Chain) (*Draft, error) {
	cert := params.SigningCertificate
	if cert == nil {
		return nil, fmt.Errorf("%w: certificado firmante requerido", ErrInvalidParameters)
	}
	signatureMethod, err := SignatureMethodURI(cert.PublicKey, params.DigestAlgorithm)
	if err != nil {
		return nil, err
	}
	signingTime := params.SigningTime
	if signingTime.IsZero() {
		signingTime = time.Now()
	}
	ids := params.IDs
	if ids == nil {
		ids = CertificateIDGenerator{Certificate: cert, SigningTime: signingTime}
	}

	var root *etree.Document
	if len(params.RootDocument) > 0 {
		root = etree.NewDocument()
		if err := root.ReadFromBytes(params.RootDocument); err != nil {
			return nil, fmt.Errorf("xades: documento raíz: %w: %v", dsig.ErrCanonicalization, err)
		}
		if root.Root() == nil {
			return nil, fmt.Errorf("xades: documento raíz: %w: sin elemento raíz", dsig.ErrCanonicalization)
		}
	}
	bc := NewBuildContext(root, params.CanonicalizationMethod)
	if !dsig.IsCanonicalization(bc.CanonicalizationMethod) {
		return nil, fmt.Errorf("%w: %s", dsig.ErrUnsupportedTransform, bc.CanonicalizationMethod)
	}

	sig := bc.Signature
	signedInfo := sig.CreateElement(qname(dsig.PrefixDS, dsig.TagSignedInfo))
	keyInfo := sig.CreateElement(qname(dsig.PrefixDS, dsig.TagKeyInfo))
	x509Data := keyInfo.CreateElement(qname(dsig.PrefixDS, dsig.TagX509Data))
	x509Data.CreateElement(qname(dsig.PrefixDS, dsig.TagX509Certificate)).
		SetText(base64.StdEncoding.EncodeToString(cert.Raw))
	qualifyingObject := sig.CreateElement(qname(dsig.PrefixDS, dsig.TagObject))

	result, err := s.detached.Build(bc, chain, ids, params.DigestAlgorithm)
	if err != nil {
		return nil, err
	}
	id := result.DeterministicID
	sig.CreateAttr(dsig.AttrID, id)

	signedProps, err := buildQualifyingProperties(qualifyingObject, id, cert, signingTime, params.DigestAlgorithm, result)
	if err != nil {
		return nil, err
	}
	propsContents, err := serializeStandalone(signedProps)
	if err != nil {
		return nil, fmt.Errorf("xades: serializando SignedProperties: %w", err)
	}
	propsRef := dsig.Reference{
		ID:              "r-" + signedPropertiesID(id),
		URI:             "#" + signedPropertiesID(id),
		Type:            dsig.TypeSignedProperties,
		Transforms:      []dsig.Transform{{Algorithm: dsig.C14NExclusive}},
		DigestAlgorithm: params.DigestAlgorithm,
		Contents:        dsig.NewInMemoryDocument(signedPropertiesID(id), dsig.MimeTypeXML, propsContents),
	}
	if err := DigestReference(&propsRef); err != nil {
		return nil, err
	}

	cm := signedInfo.CreateElement(qname(dsig.PrefixDS, dsig.TagCanonicalizationMethod))
	cm.CreateAttr(dsig.AttrAlgorithm, bc.CanonicalizationMethod)
	sm := signedInfo.CreateElement(qname(dsig.PrefixDS, dsig.TagSignatureMethod))
	sm.CreateAttr(dsig.AttrAlgorithm, signatureMethod)
	references := make([]dsig.Reference, 0, len(result.References)+1)
	for i := range result.References {
		appendReference(signedInfo, &result.References[i])
		references = append(references, result.References[i])
	}
	appendReference(signedInfo, &propsRef)
	references = append(references, propsRef)

	signedInfoXML, err := serializeStandalone(signedInfo)
	if err != nil {
		return nil, fmt.Errorf("xades: serializando SignedInfo: %w", err)
	}
	dataToSign, err := xmldsig.Canonicalize(bc.CanonicalizationMethod, nil, signedInfoXML)
	if err != nil {
		return nil, fmt.Errorf("xades: canonicalizando SignedInfo: %w", err)
	}

	s.log.Debug().
		Str("id", id).
		Str("signature_method", signatureMethod).
		Int("references", len(references)).
		Msg("xades: SignedInfo listo para firmar")

	return &Draft{
		DeterministicID: id,
		SignatureMethod: signatureMethod,
		References:      references,
		Manifests:       result.Manifests,
		DataToSign:      dataToSign,
		doc:             bc.Root,
		signature:       sig,
		signedInfo:      signedInfo,
	}, nil
}

// Finish inserta ds:SignatureValue después de SignedInfo y serializa el documento completo.
func (d *Draft) Finish(signatureValue []byte) ([]byte, error) {
	if d.finished {
		return nil, ErrDraftFinished
	}
	if len(signatureValue) == 0 {
		return nil, fmt.Errorf("%w: valor de firma vacío", ErrInvalidParameters)
	}
	sv := etree.NewElement(qname(dsig.PrefixDS, dsig.TagSignatureValue))
	sv.CreateAttr(dsig.AttrID, "value-"+d.DeterministicID)
	sv.SetText(base64.StdEncoding.EncodeToString(signatureValue))
	d.signature.InsertChildAt(d.signedInfo.Index()+1, sv)
	d.finished = true

	out, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("xades: serializando firma: %w", err)
	}
	return out, nil
}

func signedPropertiesID(id string) string {
	return "xades-" + id
}

// buildQualifyingProperties agrega xades:QualifyingProperties (XAdES-BES) y devuelve
// xades:SignedProperties.
func buildQualifyingProperties(object *etree.Element, id string, cert *x509.Certificate, signingTime time.Time, alg dsig.DigestAlgorithm, result *DetachedResult) (*etree.Element, error) {
	xq := func(tag string) string { return qname(dsig.PrefixXAdES, tag) }
	dq := func(tag string) string { return qname(dsig.PrefixDS, tag) }

	qp := object.CreateElement(xq("QualifyingProperties"))
	qp.CreateAttr("xmlns:"+dsig.PrefixXAdES, dsig.NamespaceXAdES)
	qp.CreateAttr("Target", "#"+id)

	sp := qp.CreateElement(xq("SignedProperties"))
	sp.CreateAttr(dsig.AttrID, signedPropertiesID(id))

	ssp := sp.CreateElement(xq("SignedSignatureProperties"))
	ssp.CreateElement(xq("SigningTime")).SetText(signingTime.UTC().Format(signingTimeLayout))

	certDigest, issuerName, serial, err := CertDigestAndIssuerSerial(cert, alg)
	if err != nil {
		return nil, err
	}
	certEl := ssp.CreateElement(xq("SigningCertificate")).CreateElement(xq("Cert"))
	digestEl := certEl.CreateElement(xq("CertDigest"))
	digestEl.CreateElement(dq(dsig.TagDigestMethod)).CreateAttr(dsig.AttrAlgorithm, alg.URI())
	digestEl.CreateElement(dq(dsig.TagDigestValue)).SetText(certDigest)
	issuerSerial := certEl.CreateElement(xq("IssuerSerial"))
	issuerSerial.CreateElement(dq("X509IssuerName")).SetText(issuerName)
	issuerSerial.CreateElement(dq("X509SerialNumber")).SetText(serial)

	sdop := sp.CreateElement(xq("SignedDataObjectProperties"))
	for i, ref := range result.References {
		dof := sdop.CreateElement(xq("DataObjectFormat"))
		dof.CreateAttr("ObjectReference", "#"+ref.ID)
		dof.CreateElement(xq("MimeType")).SetText(dataObjectMimeType(result.Manifests[i]))
	}
	return sp, nil
}

// dataObjectMimeType tipo declarado del documento firmado a través del manifiesto.
func dataObjectMimeType(m *dsig.Manifest) string {
	if len(m.References) > 0 && m.References[0].Type != "" {
		return m.References[0].Type
	}
	return dsig.MimeTypeBinary.String()
}

// CertDigestAndIssuerSerial devuelve el digest del certificado (base64), el nombre del emisor y
// el número de serie en decimal, tal como los exige xades:SigningCertificate.
func CertDigestAndIssuerSerial(cert *x509.Certificate, alg dsig.DigestAlgorithm) (digestB64, issuerName, serial string, err error) {
	digest, err := xmldsig.Digest(alg, cert.Raw)
	if err != nil {
		return "", "", "", err
	}
	return base64.StdEncoding.EncodeToString(digest), cert.Issuer.String(), cert.SerialNumber.String(), nil
}

var signatureMethods = map[string]map[dsig.DigestAlgorithm]string{
	"rsa": {
		dsig.SHA1:   "http://www.w3.org/2000/09/xmldsig#rsa-sha1",
		dsig.SHA224: "http://www.w3.org/2001/04/xmldsig-more#rsa-sha224",
		dsig.SHA256: "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256",
		dsig.SHA384: "http://www.w3.org/2001/04/xmldsig-more#rsa-sha384",
		dsig.SHA512: "http://www.w3.org/2001/04/xmldsig-more#rsa-sha512",
	},
	"ecdsa": {
		dsig.SHA1:   "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha1",
		dsig.SHA224: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha224",
		dsig.SHA256: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256",
		dsig.SHA384: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha384",
		dsig.SHA512: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha512",
	},
}

// SignatureMethodURI identificador de ds:SignatureMethod para el tipo de llave y el digest.
func SignatureMethodURI(pub crypto.PublicKey, alg dsig.DigestAlgorithm) (string, error) {
	var keyType string
	switch pub.(type) {
	case *rsa.PublicKey:
		keyType = "rsa"
	case *ecdsa.PublicKey:
		keyType = "ecdsa"
	default:
		return "", fmt.Errorf("%w: llave %T", dsig.ErrUnsupportedAlgorithm, pub)
	}
	uri, ok := signatureMethods[keyType][alg]
	if !ok {
		return "", fmt.Errorf("%w: %s-%s", dsig.ErrUnsupportedAlgorithm, keyType, alg)
	}
	return uri, nil
}
