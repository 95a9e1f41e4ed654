// Package logger provides the singleton Zap logger for the service.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: os.Getenv("LOG_LEVEL")})
//	defer logger.Sync()
//
// En services/handlers:
//
//	log := logger.Named("auth")
//	log.Info("login ok", logger.UserID(id))
package logger
