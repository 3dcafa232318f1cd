package http

import (
	"log/slog"
	"time"

	"github.com/Alijeyrad/staylink_backend/config"
	"github.com/Alijeyrad/staylink_backend/internal/api/http/router"
	"github.com/Alijeyrad/staylink_backend/internal/app"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func Start(cfg *config.Config, timeout time.Duration) {
	fx.New(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// Nothing depends on *fiber.App, so ask for it to get the server hooks registered.
		fx.Invoke(func(*fiber.App) {}),
		fx.WithLogger(func() fxevent.Logger { return &fxevent.SlogLogger{Logger: slog.Default()} }),

		fx.StopTimeout(timeout),
	).Run()
}
