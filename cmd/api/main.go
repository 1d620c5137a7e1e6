package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/xades-detached/internal/application/signature"
	"github.com/jhoicas/xades-detached/internal/domain/dsig"
	"github.com/jhoicas/xades-detached/internal/infrastructure/token"
	"github.com/jhoicas/xades-detached/internal/infrastructure/xades"
	httpRouter "github.com/jhoicas/xades-detached/internal/interfaces/http"
	"github.com/jhoicas/xades-detached/pkg/config"
	"github.com/jhoicas/xades-detached/pkg/logger"
	tokenport "github.com/jhoicas/xades-detached/pkg/xades"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	digestAlg, err := dsig.ParseDigestAlgorithm(cfg.Signature.DigestAlgorithm)
	if err != nil {
		log.Fatal().Err(err).Msg("XADES_DIGEST_ALGORITHM")
	}
	if m := cfg.Signature.C14NMethod; m != "" && !dsig.IsCanonicalization(m) {
		log.Fatal().Str("method", m).Msg("XADES_C14N_METHOD no soportado")
	}

	// Sin certificado el servicio solo construye manifiestos; /signatures/detached responde 503.
	var signingToken tokenport.Token
	if cfg.Signature.CertConfigured() {
		var kt *token.KeyToken
		if cfg.Signature.IsP12() {
			kt, err = token.LoadFromP12(cfg.Signature.CertPath, cfg.Signature.CertPassword)
		} else {
			kt, err = token.LoadFromPEM(cfg.Signature.CertPath, cfg.Signature.CertKeyPath)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("cargar certificado de firma")
		}
		signingToken = kt
		log.Info().
			Str("subject", kt.Certificate().Subject.String()).
			Str("key", kt.KeyAlgorithm()).
			Time("not_after", kt.Certificate().NotAfter).
			Msg("token de firma cargado")
	} else {
		log.Warn().Msg("XADES_CERT_PATH vacío: firma deshabilitada")
	}

	xadesLog := log.Component("xades")
	opts := xades.Options{BinaryPassthrough: cfg.Signature.BinaryPassthrough, Logger: &xadesLog}
	detached := xades.NewDetachedBuilder(opts)
	signatureUC := signature.NewUseCase(
		detached,
		xades.NewSignatureBuilder(detached, opts),
		signingToken,
		nil,
		signature.Config{DigestAlgorithm: digestAlg, CanonicalizationMethod: cfg.Signature.C14NMethod},
		log.Component("signature"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.Signature.MaxUploadMB * 1024 * 1024,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "XAdES Detached API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"service":    cfg.App.Name,
			"signing":    signingToken != nil,
			"digest_alg": digestAlg.String(),
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		SignatureUC: signatureUC,
		JWTSecret:   cfg.JWT.Secret,
		Logger:      log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
