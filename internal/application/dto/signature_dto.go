package dto

// ReferenceDTO ds:Reference construida (interna de un manifiesto o externa de SignedInfo).
type ReferenceDTO struct {
	ID           string   `json:"id,omitempty"`
	URI          string   `json:"uri"`
	Type         string   `json:"type,omitempty"`
	Transforms   []string `json:"transforms"`
	DigestMethod string   `json:"digest_method"`
	// DigestValue en base64, tal como aparece en ds:DigestValue.
	DigestValue string `json:"digest_value"`
	// Digest forma "<alg>:<hex>" (solo sha256/384/512).
	Digest string `json:"digest,omitempty"`
}

// ManifestDTO ds:Manifest construido para un documento.
type ManifestDTO struct {
	ID         string         `json:"id"`
	References []ReferenceDTO `json:"references"`
}

// ManifestResponse respuesta de POST /api/v1/manifests.
type ManifestResponse struct {
	DeterministicID string         `json:"deterministic_id"`
	DigestAlgorithm string         `json:"digest_algorithm"`
	Object          string         `json:"object"`
	Manifests       []ManifestDTO  `json:"manifests"`
	References      []ReferenceDTO `json:"references"`
}

// SignatureResponse resultado de una firma detached.
type SignatureResponse struct {
	DeterministicID string `json:"deterministic_id"`
	SignatureMethod string `json:"signature_method"`
	Documents       int    `json:"documents"`
	XML             []byte `json:"-"`
}
