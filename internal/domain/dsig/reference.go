package dsig

import (
	"encoding/base64"
	"fmt"
)

// Transform paso de transformación de una Reference. El orden es significativo:
// se aplican de izquierda a derecha y lo que se digiere es la salida del último.
type Transform struct {
	Algorithm string
	// PrefixList lista de prefijos InclusiveNamespaces (solo C14N exclusiva).
	PrefixList []string
}

// Reference describe qué se digiere y cómo.
// DigestValue solo es válido después de ejecutar transformaciones y digest sobre Contents.
type Reference struct {
	ID              string
	URI             string
	Type            string
	Transforms      []Transform
	DigestAlgorithm DigestAlgorithm
	Contents        Document
	DigestValue     []byte
}

// Digested indica si el DigestValue ya fue calculado.
func (r *Reference) Digested() bool {
	return len(r.DigestValue) > 0
}

// DigestBase64 DigestValue codificado para el texto de ds:DigestValue.
func (r *Reference) DigestBase64() string {
	return base64.StdEncoding.EncodeToString(r.DigestValue)
}

func (r Reference) String() string {
	return fmt.Sprintf("Reference{id=%q, uri=%q, type=%q, transforms=%d, digest=%s}",
		r.ID, r.URI, r.Type, len(r.Transforms), r.DigestAlgorithm)
}

// Manifest agrupa referencias bajo una unidad digerible. Es un artefacto transitorio de
// construcción: Contents es su forma XML serializada, que se convierte en el contenido
// de exactamente una referencia externa.
type Manifest struct {
	ID         string
	Contents   Document
	References []Reference
}

// Clone copia el manifiesto; la lista de referencias (y sus transformaciones) es propia de la copia.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{ID: m.ID, Contents: m.Contents}
	if len(m.References) > 0 {
		out.References = make([]Reference, len(m.References))
		for i, ref := range m.References {
			ref.Transforms = append([]Transform(nil), ref.Transforms...)
			ref.DigestValue = append([]byte(nil), ref.DigestValue...)
			out.References[i] = ref
		}
	}
	return out
}

func (m Manifest) String() string {
	return fmt.Sprintf("Manifest{id=%q, references=%v}", m.ID, m.References)
}
