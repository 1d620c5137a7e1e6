package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del servicio (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Signature SignatureConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SignatureConfig parámetros de construcción de firmas y token de firma.
type SignatureConfig struct {
	DigestAlgorithm   string // SHA256, SHA-384, SHA3-256...
	C14NMethod        string // URI del método de canonicalización de SignedInfo (vacío = exclusiva)
	BinaryPassthrough bool   // documentos no XML sin transformaciones
	CertPath          string // Ruta al certificado .pem o .p12 (vacío = sin token, solo manifiestos)
	CertKeyPath       string // Ruta a la llave privada .pem (si CertPath es solo el certificado)
	CertPassword      string // Contraseña del .p12 (si CertPath es .p12)
	MaxUploadMB       int
}

// CertConfigured indica si hay un certificado de firma configurado.
func (c SignatureConfig) CertConfigured() bool {
	return c.CertPath != ""
}

// IsP12 indica si el certificado es un contenedor PKCS#12.
func (c SignatureConfig) IsP12() bool {
	p := strings.ToLower(c.CertPath)
	return strings.HasSuffix(p, ".p12") || strings.HasSuffix(p, ".pfx")
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, HTTP_PORT, JWT_SECRET, XADES_*, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "xades-detached"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "xades-detached"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Signature: SignatureConfig{
			DigestAlgorithm:   getString(v, "XADES_DIGEST_ALGORITHM", "SHA256"),
			C14NMethod:        getString(v, "XADES_C14N_METHOD", ""),
			BinaryPassthrough: getBool(v, "XADES_BINARY_PASSTHROUGH", false),
			CertPath:          getString(v, "XADES_CERT_PATH", ""),
			CertKeyPath:       getString(v, "XADES_CERT_KEY_PATH", ""),
			CertPassword:      getString(v, "XADES_CERT_PASSWORD", ""),
			MaxUploadMB:       getInt(v, "XADES_MAX_UPLOAD_MB", 20),
		},
	}
	if cfg.Signature.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("config: XADES_MAX_UPLOAD_MB debe ser positivo (%d)", cfg.Signature.MaxUploadMB)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
