package xmldsig_test

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/internal/infrastructure/xmldsig"
)

var exc = []dsig.Transform{{Algorithm: dsig.C14NExclusive}}

// ──────────────────────────────────────────────────────────────────────────────
// Canonicalización
// ──────────────────────────────────────────────────────────────────────────────

func TestCanonicalize_ExclusivaElementoVacio(t *testing.T) {
	out, err := xmldsig.ApplyTransforms(exc, []byte(`<a/>`))
	require.NoError(t, err)
	assert.Equal(t, `<a></a>`, string(out))
}

func TestCanonicalize_OrdenaAtributos(t *testing.T) {
	out, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, []byte(`<a b="2" a="1"/>`))
	require.NoError(t, err)
	assert.Equal(t, `<a a="1" b="2"></a>`, string(out))
}

func TestCanonicalize_ExclusivaOmiteNamespacesNoUsados(t *testing.T) {
	out, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, []byte(`<r xmlns:u="urn:u"><a/></r>`))
	require.NoError(t, err)
	assert.Equal(t, `<r><a></a></r>`, string(out))
}

func TestCanonicalize_PrefixListIncluyeNamespace(t *testing.T) {
	out, err := xmldsig.Canonicalize(dsig.C14NExclusive, []string{"u"}, []byte(`<r xmlns:u="urn:u"><a/></r>`))
	require.NoError(t, err)
	assert.Contains(t, string(out), `xmlns:u="urn:u"`)
}

func TestCanonicalize_InclusivaConservaNamespaces(t *testing.T) {
	out, err := xmldsig.Canonicalize(dsig.C14NInclusive, nil, []byte(`<r xmlns:u="urn:u"><a/></r>`))
	require.NoError(t, err)
	assert.Contains(t, string(out), `xmlns:u="urn:u"`)
	assert.Contains(t, string(out), `<a></a>`)
}

func TestCanonicalize_Comentarios(t *testing.T) {
	in := []byte(`<a><!--x--><b/></a>`)

	sin, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, in)
	require.NoError(t, err)
	assert.Equal(t, `<a><b></b></a>`, string(sin))

	con, err := xmldsig.Canonicalize(dsig.C14NExclusiveWithComments, nil, in)
	require.NoError(t, err)
	assert.Equal(t, `<a><!--x--><b></b></a>`, string(con))
}

func TestCanonicalize_Latin1SeConvierteAUTF8(t *testing.T) {
	in := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><a>\xe9</a>")
	out, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, in)
	require.NoError(t, err)
	assert.Equal(t, "<a>é</a>", string(out))
}

// Canonicalizar bytes ya canónicos produce los mismos bytes.
func TestCanonicalize_Idempotente(t *testing.T) {
	in := []byte(`<doc xmlns="urn:d" z="1" a="2"><!-- c --><item  id="x">texto &amp; más</item><vacio/></doc>`)
	for _, alg := range []string{dsig.C14NExclusive, dsig.C14NInclusive, dsig.C14N11} {
		first, err := xmldsig.Canonicalize(alg, nil, in)
		require.NoError(t, err, alg)
		second, err := xmldsig.Canonicalize(alg, nil, first)
		require.NoError(t, err, alg)
		assert.Equal(t, string(first), string(second), alg)
	}
}

func TestCanonicalize_XMLMalformado(t *testing.T) {
	for _, in := range []string{`<a attr=valor/>`, `<a><b></a>`, `<a>`, `texto plano`, ``} {
		_, err := xmldsig.ApplyTransforms(exc, []byte(in))
		assert.ErrorIs(t, err, dsig.ErrCanonicalization, "entrada %q", in)
	}
}

// Vectores verificados con xmllint (--exc-c14n, --c14n, --c14n11; xmllint incluye comentarios).
const documentoConProlog = "<?xml version=\"1.0\"?>\n" +
	"<?xml-stylesheet type=\"text/xsl\" href=\"a.xsl\"?>\n" +
	"<!-- cabecera -->\n" +
	"<a b=\"x\ty\nz\"><!-- dentro --><b c=\"1\r\n2\"/></a>\n" +
	"<?fin?>\n" +
	"<!-- pie -->\n"

func TestCanonicalize_NodosDelDocumento(t *testing.T) {
	conComentarios := "<?xml-stylesheet type=\"text/xsl\" href=\"a.xsl\"?>\n" +
		"<!-- cabecera -->\n" +
		"<a b=\"x y z\"><!-- dentro --><b c=\"1 2\"></b></a>\n" +
		"<?fin?>\n" +
		"<!-- pie -->"
	sinComentarios := "<?xml-stylesheet type=\"text/xsl\" href=\"a.xsl\"?>\n" +
		"<a b=\"x y z\"><b c=\"1 2\"></b></a>\n" +
		"<?fin?>"

	cases := map[string]string{
		dsig.C14NExclusive:             sinComentarios,
		dsig.C14NExclusiveWithComments: conComentarios,
		dsig.C14NInclusive:             sinComentarios,
		dsig.C14NInclusiveWithComments: conComentarios,
		dsig.C14N11:                    sinComentarios,
	}
	for alg, want := range cases {
		out, err := xmldsig.Canonicalize(alg, nil, []byte(documentoConProlog))
		require.NoError(t, err, alg)
		assert.Equal(t, want, string(out), alg)
	}
}

func TestCanonicalize_StylesheetYEspaciosEnAtributos(t *testing.T) {
	in := "<?xml version=\"1.0\"?>\n<?xml-stylesheet type=\"text/xsl\" href=\"a.xsl\"?>\n<a b=\"x\ty\nz\"/>\n"
	want := "<?xml-stylesheet type=\"text/xsl\" href=\"a.xsl\"?>\n<a b=\"x y z\"></a>"
	for _, alg := range []string{dsig.C14NExclusive, dsig.C14NInclusive} {
		out, err := xmldsig.Canonicalize(alg, nil, []byte(in))
		require.NoError(t, err, alg)
		assert.Equal(t, want, string(out), alg)
	}
}

func TestCanonicalize_ReferenciaDeCaracterEnAtributoSeConserva(t *testing.T) {
	out, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, []byte(`<a b="&#9;t"/>`))
	require.NoError(t, err)
	assert.Equal(t, `<a b="&#x9;t"></a>`, string(out))
}

func TestCanonicalize_InclusivaVsExclusiva(t *testing.T) {
	in := []byte(`<r xmlns:p="urn:p" xmlns:q="urn:q"><p:a q:x="1"/></r>`)

	incl, err := xmldsig.Canonicalize(dsig.C14NInclusive, nil, in)
	require.NoError(t, err)
	assert.Equal(t, `<r xmlns:p="urn:p" xmlns:q="urn:q"><p:a q:x="1"></p:a></r>`, string(incl))

	excl, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, in)
	require.NoError(t, err)
	assert.Equal(t, `<r><p:a xmlns:p="urn:p" xmlns:q="urn:q" q:x="1"></p:a></r>`, string(excl))
}

func TestCanonicalize_ExclusivaNamespacePorDefectoNoUsado(t *testing.T) {
	in := []byte(`<p:a xmlns="urn:d" xmlns:p="urn:p" x="1"><p:b y="2"/></p:a>`)
	out, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, in)
	require.NoError(t, err)
	assert.Equal(t, `<p:a xmlns:p="urn:p" x="1"><p:b y="2"></p:b></p:a>`, string(out))
}

func TestCanonicalize_EntidadInterna(t *testing.T) {
	in := []byte(`<!DOCTYPE a [<!ENTITY e "x">]><a>&e;</a>`)
	for _, alg := range []string{dsig.C14NExclusive, dsig.C14NInclusive, dsig.C14N11} {
		out, err := xmldsig.Canonicalize(alg, nil, in)
		require.NoError(t, err, alg)
		assert.Equal(t, `<a>x</a>`, string(out), alg)
	}
}

func TestCanonicalize_DTDNoSoportado(t *testing.T) {
	for _, in := range []string{
		`<!DOCTYPE a [<!ENTITY e SYSTEM "file:///etc/passwd">]><a>&e;</a>`,
		`<!DOCTYPE a [<!ENTITY % p "x">]><a/>`,
		`<!DOCTYPE a [<!ENTITY e "<b/>">]><a>&e;</a>`,
		`<!DOCTYPE a [<!ATTLIST a b CDATA "def">]><a/>`,
	} {
		_, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, []byte(in))
		assert.ErrorIs(t, err, dsig.ErrUnsupportedContent, "entrada %q", in)
		assert.NotErrorIs(t, err, dsig.ErrCanonicalization, "entrada %q", in)
	}
}

func TestCanonicalize_EntidadNoDeclaradaEsMalformado(t *testing.T) {
	_, err := xmldsig.Canonicalize(dsig.C14NExclusive, nil, []byte(`<a>&e;</a>`))
	assert.ErrorIs(t, err, dsig.ErrCanonicalization)
}

func TestCanonicalize_TransformacionNoSoportada(t *testing.T) {
	_, err := xmldsig.ApplyTransforms(
		[]dsig.Transform{{Algorithm: "http://www.w3.org/2000/09/xmldsig#enveloped-signature"}},
		[]byte(`<a/>`),
	)
	assert.ErrorIs(t, err, dsig.ErrUnsupportedTransform)
}

func TestApplyTransforms_SinTransformaciones(t *testing.T) {
	raw := []byte{0x00, 0x01, 0xff}
	out, err := xmldsig.ApplyTransforms(nil, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

// ──────────────────────────────────────────────────────────────────────────────
// Digest
// ──────────────────────────────────────────────────────────────────────────────

func TestDigest_VectorSHA256(t *testing.T) {
	out, err := xmldsig.Digest(dsig.SHA256, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hex.EncodeToString(out))
}

func TestDigest_LongitudPorAlgoritmo(t *testing.T) {
	for _, alg := range []dsig.DigestAlgorithm{
		dsig.SHA1, dsig.SHA224, dsig.SHA256, dsig.SHA384, dsig.SHA512,
		dsig.SHA3_224, dsig.SHA3_256, dsig.SHA3_384, dsig.SHA3_512, dsig.RIPEMD160,
	} {
		out, err := xmldsig.Digest(alg, []byte("<a></a>"))
		require.NoError(t, err, alg.String())
		assert.Len(t, out, alg.Size(), alg.String())
	}
}

func TestDigest_Determinista(t *testing.T) {
	in := []byte(`<a b="1"><c/></a>`)
	var prev []byte
	for i := 0; i < 3; i++ {
		canonical, err := xmldsig.ApplyTransforms(exc, in)
		require.NoError(t, err)
		out, err := xmldsig.Digest(dsig.SHA256, canonical)
		require.NoError(t, err)
		if prev != nil {
			assert.Equal(t, prev, out)
		}
		prev = out
	}
}

func TestDigest_AlgoritmoNoSoportado(t *testing.T) {
	_, err := xmldsig.Digest(dsig.DigestUnknown, []byte("x"))
	assert.ErrorIs(t, err, dsig.ErrUnsupportedAlgorithm)
}

// ──────────────────────────────────────────────────────────────────────────────
// DigestReference
// ──────────────────────────────────────────────────────────────────────────────

type failingDocument struct{}

func (failingDocument) Name() string            { return "roto.xml" }
func (failingDocument) MimeType() dsig.MimeType { return dsig.MimeTypeXML }
func (failingDocument) Open() (io.ReadCloser, error) {
	return nil, errors.New("disco no disponible")
}

func TestDigestReference_Escenario(t *testing.T) {
	ref := &dsig.Reference{
		URI:             "d.xml",
		Transforms:      exc,
		DigestAlgorithm: dsig.SHA256,
		Contents:        dsig.NewInMemoryDocument("d.xml", dsig.MimeTypeXML, []byte(`<a/>`)),
	}
	require.NoError(t, xmldsig.DigestReference(ref))

	want := sha256.Sum256([]byte(`<a></a>`))
	assert.Equal(t, want[:], ref.DigestValue)
	assert.Len(t, ref.DigestValue, 32)
}

func TestDigestReference_ErrorDeLectura(t *testing.T) {
	ref := &dsig.Reference{Transforms: exc, DigestAlgorithm: dsig.SHA256, Contents: failingDocument{}}
	err := xmldsig.DigestReference(ref)
	assert.ErrorIs(t, err, dsig.ErrContentRead)
	assert.False(t, ref.Digested())
}

func TestDigestReference_MalformadoSinDigest(t *testing.T) {
	ref := &dsig.Reference{
		Transforms:      exc,
		DigestAlgorithm: dsig.SHA256,
		Contents:        dsig.NewInMemoryDocument("x.xml", "", []byte(`<a attr=valor/>`)),
	}
	err := xmldsig.DigestReference(ref)
	assert.ErrorIs(t, err, dsig.ErrCanonicalization)
	assert.Nil(t, ref.DigestValue)
}
