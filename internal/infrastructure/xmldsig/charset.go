package xmldsig

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// charsetReader decodifica documentos que declaran un encoding distinto de UTF-8.
// La salida canónica siempre es UTF-8.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.EqualFold(label, "ISO-8859-1") || strings.EqualFold(label, "ISO8859-1") || strings.EqualFold(label, "latin1") {
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q no soportado", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// newDecoder decodificador estricto que solo expande las entidades predefinidas y las declaradas
// en el subconjunto interno del DOCTYPE.
func newDecoder(content []byte, entities map[string]string) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(content))
	if entities == nil {
		entities = map[string]string{}
	}
	dec.Entity = entities
	dec.CharsetReader = charsetReader
	return dec
}

// checkWellFormed recorre todos los tokens en modo estricto: etiquetas sin cerrar o cruzadas,
// atributos mal formados o ausencia de elemento raíz son errores de canonicalización.
func checkWellFormed(content []byte, entities map[string]string) error {
	dec := newDecoder(content, entities)
	hasRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			hasRoot = true
		}
	}
	if !hasRoot {
		return fmt.Errorf("el documento no tiene elemento raíz")
	}
	return nil
}
