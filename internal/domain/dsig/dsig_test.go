package dsig_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
)

// ──────────────────────────────────────────────────────────────────────────────
// XPointer
// ──────────────────────────────────────────────────────────────────────────────

func TestIsXPointer(t *testing.T) {
	assert.True(t, dsig.IsXPointer("#xpointer(/)"))
	assert.True(t, dsig.IsXPointer("#xpointer(id('x'))"))
	assert.True(t, dsig.IsXPointer("#xmlns(ns=http://example.com)"))
	assert.False(t, dsig.IsXPointer("plainFragmentId"))
	assert.False(t, dsig.IsXPointer("#plainFragmentId"))
	assert.False(t, dsig.IsXPointer(""))
}

// ──────────────────────────────────────────────────────────────────────────────
// Algoritmos de digest
// ──────────────────────────────────────────────────────────────────────────────

func TestDigestAlgorithm_TamanosYURIs(t *testing.T) {
	assert.Equal(t, 20, dsig.SHA1.Size())
	assert.Equal(t, 32, dsig.SHA256.Size())
	assert.Equal(t, 64, dsig.SHA512.Size())
	assert.Equal(t, 32, dsig.SHA3_256.Size())
	assert.Equal(t, "http://www.w3.org/2001/04/xmlenc#sha256", dsig.SHA256.URI())
	assert.Equal(t, "SHA3-256", dsig.SHA3_256.String())
	assert.False(t, dsig.DigestUnknown.Valid())
	assert.Equal(t, 0, dsig.DigestAlgorithm(99).Size())
}

func TestParseDigestAlgorithm(t *testing.T) {
	for name, want := range map[string]dsig.DigestAlgorithm{
		"SHA256":   dsig.SHA256,
		"sha-256":  dsig.SHA256,
		"SHA3-512": dsig.SHA3_512,
		"sha1":     dsig.SHA1,
	} {
		got, err := dsig.ParseDigestAlgorithm(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := dsig.ParseDigestAlgorithm("MD5")
	assert.ErrorIs(t, err, dsig.ErrUnsupportedAlgorithm)
}

func TestDigestAlgorithmFromURI(t *testing.T) {
	alg, err := dsig.DigestAlgorithmFromURI(dsig.SHA384.URI())
	require.NoError(t, err)
	assert.Equal(t, dsig.SHA384, alg)

	_, err = dsig.DigestAlgorithmFromURI("http://example.com/md5")
	assert.ErrorIs(t, err, dsig.ErrUnsupportedAlgorithm)
}

// ──────────────────────────────────────────────────────────────────────────────
// Identificadores
// ──────────────────────────────────────────────────────────────────────────────

func TestIdentificadoresManifiesto(t *testing.T) {
	assert.Equal(t, "xades-id-1-manifest", dsig.ManifestID("id-1"))
	assert.Equal(t, "#xades-id-1-manifest", dsig.ManifestURI("id-1"))
	assert.Equal(t, "xades-id-1-manifest-reference", dsig.ManifestReferenceID("id-1"))

	var gen dsig.IDGenerator = dsig.StaticID("fijo")
	assert.Equal(t, "fijo", gen.GenerateID())
	gen = dsig.IDFunc(func() string { return "func" })
	assert.Equal(t, "func", gen.GenerateID())
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos
// ──────────────────────────────────────────────────────────────────────────────

func TestMimeType(t *testing.T) {
	assert.Equal(t, dsig.MimeTypeXML, dsig.MimeTypeFromName("factura.XML"))
	assert.Equal(t, dsig.MimeTypePDF, dsig.MimeTypeFromName("anexo.pdf"))
	assert.Equal(t, dsig.MimeTypeBinary, dsig.MimeTypeFromName("sin-extension"))

	assert.True(t, dsig.MimeType("application/xml").IsXML())
	assert.True(t, dsig.MimeType("application/atom+xml").IsXML())
	assert.True(t, dsig.MimeType("text/xml; charset=UTF-8").IsXML())
	assert.False(t, dsig.MimeTypePDF.IsXML())
}

func TestInMemoryDocument(t *testing.T) {
	doc := dsig.NewInMemoryDocument("a.xml", "", []byte("<a/>"))
	assert.Equal(t, "a.xml", doc.Name())
	assert.Equal(t, dsig.MimeTypeXML, doc.MimeType())

	rc, err := doc.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<a/>", string(data))
}

func TestFileDocument_ArchivoInexistente(t *testing.T) {
	doc := dsig.NewFileDocument(filepath.Join(t.TempDir(), "no-existe.xml"), "")
	assert.Equal(t, "no-existe.xml", doc.Name())

	_, err := doc.Open()
	assert.ErrorIs(t, err, dsig.ErrContentRead)
}

func TestFileDocument_Lectura(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte("<doc/>"), 0o600))

	doc := dsig.NewFileDocument(path, "")
	rc, err := doc.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<doc/>", string(data))
	assert.Equal(t, dsig.MimeTypeXML, doc.MimeType())
}

// ──────────────────────────────────────────────────────────────────────────────
// Recorrido de la cadena
// ──────────────────────────────────────────────────────────────────────────────

func TestForEachDocument_OrdenYConteo(t *testing.T) {
	chain := dsig.Chain{
		dsig.NewInMemoryDocument("d1.xml", "", []byte("<a/>")),
		dsig.NewInMemoryDocument("d2.xml", "", []byte("<b/>")),
		dsig.NewInMemoryDocument("d3.xml", "", []byte("<c/>")),
	}

	var visited []string
	err := dsig.ForEachDocument(chain, func(i int, d dsig.Document) error {
		assert.Equal(t, len(visited), i, "el índice debe seguir el orden de la cadena")
		visited = append(visited, d.Name())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1.xml", "d2.xml", "d3.xml"}, visited)
}

func TestForEachDocument_DetieneEnPrimerError(t *testing.T) {
	chain := dsig.Chain{
		dsig.NewInMemoryDocument("d1.xml", "", nil),
		dsig.NewInMemoryDocument("d2.xml", "", nil),
	}
	boom := errors.New("boom")
	calls := 0
	err := dsig.ForEachDocument(chain, func(int, dsig.Document) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestForEachDocument_CadenaInvalida(t *testing.T) {
	noop := func(int, dsig.Document) error { return nil }

	assert.ErrorIs(t, dsig.ForEachDocument(nil, noop), dsig.ErrChainTraversal)
	assert.ErrorIs(t, dsig.ForEachDocument(dsig.Chain{nil}, noop), dsig.ErrChainTraversal)
}

func TestFromLinked(t *testing.T) {
	d1 := dsig.NewInMemoryDocument("d1.xml", "", nil)
	d2 := dsig.NewInMemoryDocument("d2.xml", "", nil)

	chain := dsig.FromLinked(dsig.Link(d1, d2))
	require.Len(t, chain, 2)
	assert.Equal(t, "d1.xml", chain[0].Name())
	assert.Equal(t, "d2.xml", chain[1].Name())

	// Un documento sin enlace es una cadena de longitud 1.
	assert.Len(t, dsig.FromLinked(d1), 1)
	assert.Empty(t, dsig.FromLinked(dsig.Link()))
}

// ──────────────────────────────────────────────────────────────────────────────
// Modelo
// ──────────────────────────────────────────────────────────────────────────────

func TestManifestClone_ListaIndependiente(t *testing.T) {
	m := &dsig.Manifest{
		ID: "xades-id-manifest",
		References: []dsig.Reference{{
			URI:         "a.xml",
			Transforms:  []dsig.Transform{{Algorithm: dsig.C14NExclusive}},
			DigestValue: []byte{1, 2, 3},
		}},
	}
	c := m.Clone()
	c.References[0].URI = "b.xml"
	c.References[0].Transforms[0].Algorithm = dsig.C14NInclusive
	c.References[0].DigestValue[0] = 9

	assert.Equal(t, "a.xml", m.References[0].URI)
	assert.Equal(t, dsig.C14NExclusive, m.References[0].Transforms[0].Algorithm)
	assert.Equal(t, byte(1), m.References[0].DigestValue[0])
}

func TestReference_Digested(t *testing.T) {
	ref := dsig.Reference{}
	assert.False(t, ref.Digested())
	ref.DigestValue = []byte{0xff}
	assert.True(t, ref.Digested())
	assert.Equal(t, "/w==", ref.DigestBase64())
}

func TestIsCanonicalization(t *testing.T) {
	assert.True(t, dsig.IsCanonicalization(dsig.C14NExclusive))
	assert.True(t, dsig.IsCanonicalization(dsig.C14N11))
	assert.False(t, dsig.IsCanonicalization("http://www.w3.org/2000/09/xmldsig#enveloped-signature"))
}
