package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/feanor306/task-app-api/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Dur("token_ttl", cfg.JWT.TokenTTL).
		Msg("read env")

	config.SetGlobal(cfg)
}
