package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/xades-detached/internal/application/signature"
	"github.com/jhoicas/xades-detached/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SignatureUC *signature.UseCase
	JWTSecret   string
	Logger      zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api/v1", AuthMiddleware(deps.JWTSecret))

	h := NewSignatureHandler(deps.SignatureUC, deps.Logger)
	protected.Post("/manifests", RequireRole(jwt.RoleAdmin, jwt.RoleSigner, jwt.RoleAuditor), h.BuildManifests)
	protected.Post("/signatures/detached", RequireRole(jwt.RoleAdmin, jwt.RoleSigner), h.SignDetached)
}
