package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/jhoicas/xades-detached/internal/domain"
	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/internal/infrastructure/xmldsig"
)

// SignatureEntry nombre de la firma dentro del paquete.
const SignatureEntry = "META-INF/signature.xml"

// CheckNames verifica que cada documento pueda guardarse en el paquete con exactamente el
// nombre que usa como URI en su manifiesto. Nombres absolutos, con "..", con "\\" o que no
// estén en forma limpia, y nombres repetidos, son domain.ErrInvalidInput.
func CheckNames(chain dsig.Chain) error {
	if err := chain.Validate(); err != nil {
		return err
	}
	seen := map[string]bool{SignatureEntry: true}
	return dsig.ForEachDocument(chain, func(i int, doc dsig.Document) error {
		name, err := entryName(doc.Name(), i)
		if err != nil {
			return err
		}
		if seen[name] {
			return fmt.Errorf("%w: nombre de documento repetido %q", domain.ErrInvalidInput, name)
		}
		seen[name] = true
		return nil
	})
}

// Package empaqueta en un ZIP en memoria la firma detached y los documentos que referencia.
// Cada documento se guarda con el mismo nombre que usa como URI en su manifiesto, de modo que un
// verificador pueda resolver las referencias relativas al paquete. Un documento sin nombre se
// guarda como "document-<n>" (su referencia tiene URI="" y no se resuelve por nombre).
func Package(signatureXML []byte, chain dsig.Chain) ([]byte, error) {
	if err := CheckNames(chain); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	err := dsig.ForEachDocument(chain, func(i int, doc dsig.Document) error {
		name, err := entryName(doc.Name(), i)
		if err != nil {
			return err
		}
		content, err := xmldsig.ReadContent(doc)
		if err != nil {
			return err
		}
		return writeEntry(zw, name, content)
	})
	if err != nil {
		return nil, err
	}
	if err := writeEntry(zw, SignatureEntry, signatureXML); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, content []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("zip: crear entrada %s: %w", name, err)
	}
	if _, err := fw.Write(content); err != nil {
		return fmt.Errorf("zip: escribir %s: %w", name, err)
	}
	return nil
}

// entryName nombre de la entrada del documento i. Un nombre que habría que reescribir para que
// la entrada quede dentro del paquete se rechaza: dejaría de coincidir con la URI firmada.
func entryName(name string, i int) (string, error) {
	if name == "" {
		return fmt.Sprintf("document-%d", i+1), nil
	}
	if strings.Contains(name, "\\") || path.IsAbs(name) || path.Clean(name) != name ||
		name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("%w: nombre de documento %q no válido dentro del paquete", domain.ErrInvalidInput, name)
	}
	return name, nil
}
