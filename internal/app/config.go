package app

import (
	"strings"

	"github.com/studiostory/studiostory-backend/internal/clients/imagegen"
	"github.com/studiostory/studiostory-backend/internal/clients/textgen"
	"github.com/studiostory/studiostory-backend/internal/platform/envutil"
)

type Config struct {
	Mode           string
	Port           string
	AllowedOrigins []string
	RedisURL       string

	TextGen  textgen.Config
	ImageGen imagegen.Config
}

func LoadConfig() Config {
	origins := []string{}
	for _, o := range strings.Split(envutil.String("ALLOWED_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return Config{
		Mode:           envutil.String("APP_MODE", "dev"),
		Port:           envutil.String("PORT", "8080"),
		AllowedOrigins: origins,
		RedisURL:       envutil.String("REDIS_URL", ""),
		TextGen:        textgen.ConfigFromEnv(),
		ImageGen:       imagegen.ConfigFromEnv(),
	}
}
