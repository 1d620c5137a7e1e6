package dsig

// IDGenerator genera el identificador determinista de una firma.
// Se inyecta para que el motor sea puro y testeable con Ids fijos.
type IDGenerator interface {
	GenerateID() string
}

// IDFunc adapta una función a IDGenerator.
type IDFunc func() string

// GenerateID implementa IDGenerator.
func (f IDFunc) GenerateID() string { return f() }

// StaticID devuelve siempre el mismo identificador (tests y reconstrucciones).
type StaticID string

// GenerateID implementa IDGenerator.
func (s StaticID) GenerateID() string { return string(s) }

// ManifestID Id del elemento ds:Manifest: "xades-<id>-manifest".
func ManifestID(deterministicID string) string {
	return "xades-" + deterministicID + "-manifest"
}

// ManifestURI URI de la referencia externa que apunta al manifiesto.
func ManifestURI(deterministicID string) string {
	return "#" + ManifestID(deterministicID)
}

// ManifestReferenceID Id de la referencia externa: "xades-<id>-manifest-reference".
func ManifestReferenceID(deterministicID string) string {
	return ManifestID(deterministicID) + "-reference"
}
