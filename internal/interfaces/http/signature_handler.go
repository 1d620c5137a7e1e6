package http

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/xades-detached/internal/application/dto"
	"github.com/jhoicas/xades-detached/internal/application/signature"
	"github.com/jhoicas/xades-detached/internal/domain"
	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/internal/infrastructure/bundle"
)

// FormFieldDocuments campo multipart con los documentos desacoplados, en orden.
const FormFieldDocuments = "documents"

// SignatureHandler maneja manifiestos y firmas detached.
type SignatureHandler struct {
	uc  *signature.UseCase
	log zerolog.Logger
}

// NewSignatureHandler crea el handler.
func NewSignatureHandler(uc *signature.UseCase, log zerolog.Logger) *SignatureHandler {
	return &SignatureHandler{uc: uc, log: log}
}

// BuildManifests POST /api/v1/manifests
// Construye un ds:Manifest y una referencia externa por documento, sin firmar.
func (h *SignatureHandler) BuildManifests(c *fiber.Ctx) error {
	chain, err := readDocuments(c)
	if err != nil {
		return h.writeError(c, err)
	}
	out, err := h.uc.BuildManifests(c.UserContext(), chain)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// SignDetached POST /api/v1/signatures/detached[?format=zip]
// Devuelve el XML de ds:Signature firmado con el token del servicio, o con format=zip un paquete
// con la firma y los documentos referenciados.
func (h *SignatureHandler) SignDetached(c *fiber.Ctx) error {
	chain, err := readDocuments(c)
	if err != nil {
		return h.writeError(c, err)
	}
	asZip := c.Query("format") == "zip"
	if asZip {
		if err := bundle.CheckNames(chain); err != nil {
			return h.writeError(c, err)
		}
	}
	out, err := h.uc.SignDetached(c.UserContext(), chain)
	if err != nil {
		return h.writeError(c, err)
	}
	c.Set("X-Signature-Id", out.DeterministicID)
	if asZip {
		pkg, err := bundle.Package(out.XML, chain)
		if err != nil {
			return h.writeError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/zip")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+out.DeterministicID+`.zip"`)
		return c.Status(fiber.StatusOK).Send(pkg)
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.Status(fiber.StatusOK).Send(out.XML)
}

func readDocuments(c *fiber.Ctx) (dsig.Chain, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidInput, err)
	}
	files := form.File[FormFieldDocuments]
	if len(files) == 0 {
		return nil, errors.Join(domain.ErrInvalidInput, errors.New("se requiere al menos un archivo en el campo 'documents'"))
	}
	chain := make(dsig.Chain, 0, len(files))
	for _, fh := range files {
		doc, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		chain = append(chain, doc)
	}
	return chain, nil
}

func readPart(fh *multipart.FileHeader) (dsig.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Join(dsig.ErrContentRead, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Join(dsig.ErrContentRead, err)
	}
	mime := dsig.MimeType(fh.Header.Get(fiber.HeaderContentType))
	if mime == "" || mime == dsig.MimeTypeBinary {
		mime = dsig.MimeTypeFromName(fh.Filename)
	}
	return dsig.NewInMemoryDocument(fh.Filename, mime, data), nil
}

func (h *SignatureHandler) writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, dsig.ErrCanonicalization):
		status, code = fiber.StatusUnprocessableEntity, "CANONICALIZATION"
	case errors.Is(err, dsig.ErrUnsupportedAlgorithm):
		status, code = fiber.StatusBadRequest, "UNSUPPORTED_ALGORITHM"
	case errors.Is(err, dsig.ErrUnsupportedTransform):
		status, code = fiber.StatusBadRequest, "UNSUPPORTED_TRANSFORM"
	case errors.Is(err, dsig.ErrUnsupportedContent):
		status, code = fiber.StatusBadRequest, "UNSUPPORTED_CONTENT"
	case errors.Is(err, dsig.ErrContentRead):
		status, code = fiber.StatusBadRequest, "CONTENT_READ"
	case errors.Is(err, dsig.ErrChainTraversal), errors.Is(err, dsig.ErrInvalidURI), errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrTokenNotConfigured):
		status, code = fiber.StatusServiceUnavailable, "TOKEN_NOT_CONFIGURED"
	}
	if status >= fiber.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("error procesando solicitud de firma")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}
