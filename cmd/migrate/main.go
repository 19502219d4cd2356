// migrate applies the embedded schema migrations; go run ./cmd/migrate -direction=down to roll back.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fooder/backend/config"
	"github.com/fooder/backend/pkg/database"
)

func main() {
	direction := flag.String("direction", database.DirectionUp, "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := database.Migrate(cfg.Database.DSN(), *direction, logger); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
