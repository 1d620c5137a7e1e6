package signature

import (
	"context"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog"

	"github.com/jhoicas/xades-detached/internal/application/dto"
	"github.com/jhoicas/xades-detached/internal/domain"
	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/internal/infrastructure/xades"
	tokenport "github.com/jhoicas/xades-detached/pkg/xades"
)

// Config parámetros de construcción comunes a todas las solicitudes.
type Config struct {
	DigestAlgorithm        dsig.DigestAlgorithm
	CanonicalizationMethod string
}

// UseCase construye manifiestos detached y firmas XAdES sobre documentos recibidos.
type UseCase struct {
	detached   *xades.DetachedBuilder
	signatures *xades.SignatureBuilder
	token      tokenport.Token
	ids        dsig.IDGenerator
	cfg        Config
	log        zerolog.Logger
	now        func() time.Time
}

// NewUseCase construye el caso de uso. token puede ser nil: SignDetached devolverá
// domain.ErrTokenNotConfigured. ids nil usa RandomIDGenerator para manifiestos y
// CertificateIDGenerator para firmas.
func NewUseCase(
	detached *xades.DetachedBuilder,
	signatures *xades.SignatureBuilder,
	token tokenport.Token,
	ids dsig.IDGenerator,
	cfg Config,
	log zerolog.Logger,
) *UseCase {
	if cfg.DigestAlgorithm == dsig.DigestUnknown {
		cfg.DigestAlgorithm = dsig.SHA256
	}
	return &UseCase{
		detached:   detached,
		signatures: signatures,
		token:      token,
		ids:        ids,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj usado como hora de firma.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// BuildManifests construye un manifiesto y una referencia externa por documento, sin firmar.
func (uc *UseCase) BuildManifests(ctx context.Context, chain dsig.Chain) (*dto.ManifestResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := uc.ids
	if ids == nil {
		ids = xades.RandomIDGenerator{}
	}
	bc := xades.NewBuildContext(nil, uc.cfg.CanonicalizationMethod)
	res, err := uc.detached.Build(bc, chain, ids, uc.cfg.DigestAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("signature: construir manifiestos: %w", err)
	}
	objectXML, err := res.ObjectXML()
	if err != nil {
		return nil, fmt.Errorf("signature: serializar ds:Object: %w", err)
	}

	out := &dto.ManifestResponse{
		DeterministicID: res.DeterministicID,
		DigestAlgorithm: uc.cfg.DigestAlgorithm.String(),
		Object:          string(objectXML),
		Manifests:       make([]dto.ManifestDTO, 0, len(res.Manifests)),
		References:      make([]dto.ReferenceDTO, 0, len(res.References)),
	}
	for _, m := range res.Manifests {
		md := dto.ManifestDTO{ID: m.ID}
		for _, r := range m.References {
			md.References = append(md.References, toReferenceDTO(r))
		}
		out.Manifests = append(out.Manifests, md)
	}
	for _, r := range res.References {
		out.References = append(out.References, toReferenceDTO(r))
	}

	uc.log.Info().
		Str("id", res.DeterministicID).
		Int("documents", len(chain)).
		Msg("manifiestos detached construidos")
	return out, nil
}

// SignDetached construye la firma completa y la firma con el token configurado.
func (uc *UseCase) SignDetached(ctx context.Context, chain dsig.Chain) (*dto.SignatureResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if uc.token == nil {
		return nil, domain.ErrTokenNotConfigured
	}

	draft, err := uc.signatures.DataToSign(xades.SignatureParameters{
		DigestAlgorithm:        uc.cfg.DigestAlgorithm,
		CanonicalizationMethod: uc.cfg.CanonicalizationMethod,
		SigningCertificate:     uc.token.Certificate(),
		SigningTime:            uc.now(),
		IDs:                    uc.ids,
	}, chain)
	if err != nil {
		return nil, fmt.Errorf("signature: preparar firma: %w", err)
	}
	value, err := uc.token.Sign(draft.DataToSign, uc.cfg.DigestAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("signature: firmar con token: %w", err)
	}
	signed, err := draft.Finish(value)
	if err != nil {
		return nil, fmt.Errorf("signature: completar firma: %w", err)
	}

	uc.log.Info().
		Str("id", draft.DeterministicID).
		Str("key", uc.token.KeyAlgorithm()).
		Int("documents", len(chain)).
		Msg("firma detached generada")
	return &dto.SignatureResponse{
		DeterministicID: draft.DeterministicID,
		SignatureMethod: draft.SignatureMethod,
		Documents:       len(chain),
		XML:             signed,
	}, nil
}

var ociAlgorithms = map[dsig.DigestAlgorithm]digest.Algorithm{
	dsig.SHA256: digest.SHA256,
	dsig.SHA384: digest.SHA384,
	dsig.SHA512: digest.SHA512,
}

func toReferenceDTO(r dsig.Reference) dto.ReferenceDTO {
	out := dto.ReferenceDTO{
		ID:           r.ID,
		URI:          r.URI,
		Type:         r.Type,
		Transforms:   make([]string, 0, len(r.Transforms)),
		DigestMethod: r.DigestAlgorithm.URI(),
		DigestValue:  r.DigestBase64(),
	}
	for _, t := range r.Transforms {
		out.Transforms = append(out.Transforms, t.Algorithm)
	}
	if alg, ok := ociAlgorithms[r.DigestAlgorithm]; ok {
		out.Digest = digest.NewDigestFromBytes(alg, r.DigestValue).String()
	}
	return out
}
