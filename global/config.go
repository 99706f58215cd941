package global

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项，全部来自环境变量（.env 由 main 加载）。
type Config struct {
	Port       string
	ClientURL  string
	Origins    []string // CORS allow-list

	MongoURI      string
	MongoDatabase string

	JWTSecret []byte
	TokenTTL  time.Duration

	// Redis presence mirror; empty Addr disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SMTP for verification / password-reset mail; empty Host disables it.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Google OAuth; empty ClientID disables the routes.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Cloudinary; empty disables image upload (messages fall back to text only).
	CloudinaryURL string

	// Dev-mode escape hatch: accept a bare userId query param at the ws
	// handshake instead of a verified token.
	RelayAllowUnverified bool
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	c := &Config{
		Port:          getenv("PORT", "5001"),
		ClientURL:     getenv("CLIENT_URL", "http://localhost:5173"),
		MongoURI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenv("MONGODB_DATABASE", "linkchat"),
		TokenTTL:      7 * 24 * time.Hour,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SMTPHost: os.Getenv("EMAIL_HOST"),
		SMTPUser: os.Getenv("EMAIL_USER"),
		SMTPPass: os.Getenv("EMAIL_APP_PASSWORD"),
		MailFrom: getenv("EMAIL_FROM", os.Getenv("EMAIL_USER")),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	c.JWTSecret = []byte(secret)

	c.SMTPPort = atoi(getenv("EMAIL_PORT", "587"))
	c.RedisDB = atoi(getenv("REDIS_DB", "0"))
	c.RelayAllowUnverified = getenv("RELAY_ALLOW_UNVERIFIED", "false") == "true"

	origins := []string{
		"http://localhost:5173",
		"http://localhost:5174",
		"http://localhost:3000",
	}
	if c.ClientURL != "" {
		origins = append(origins, c.ClientURL)
	}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	c.Origins = origins

	return c, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
