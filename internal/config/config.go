package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	ContentPath string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	PassThreshold    int
	ProctorMax       int
	StrictProctoring bool
	LessonDateGates  bool
	AutoAdvance      bool
	ModuleUnlockStep int
	AbsenceSweepSpec string // cron spec, empty disables the sweep
	CORSOrigins      []string
}

func FromEnv() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment variables")
	}
	return Config{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		ContentPath: envOr("CONTENT_PATH", "./content/catalog.json"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:  envOr("ADMIN_USER", "admin"),
		// bcrypt of "admin", dev only
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),

		PassThreshold:    envInt("PASS_THRESHOLD", 80),
		ProctorMax:       envInt("PROCTOR_MAX_VIOLATIONS", 3),
		StrictProctoring: envBool("STRICT_PROCTORING", false),
		LessonDateGates:  envBool("LESSON_DATE_GATES", false),
		AutoAdvance:      envBool("AUTO_ADVANCE", true),
		ModuleUnlockStep: envInt("MODULE_UNLOCK_STEP_DAYS", 7),
		AbsenceSweepSpec: envOr("ABSENCE_SWEEP", "15 0 * * *"),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %d", k, v, def)
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
