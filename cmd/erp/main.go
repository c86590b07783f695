package main

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"erp/config"
	"erp/internal/delivery"
	"erp/internal/delivery/api"
	"erp/internal/delivery/api/middleware"
	"erp/internal/delivery/api/router/handler"
	"erp/internal/infra/auth"
	logs "erp/internal/infra/log"
	"erp/internal/infra/persistence/database"
	"erp/internal/usecase"
	"erp/internal/usecase/impl"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		options(),
		fx.Invoke(
			ensureBootstrapAdmin,
			startServer,
		),
	).Run()
}

func options() fx.Option {
	return fx.Options(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
	)
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		database.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			database.NewTransactionManager,
			database.NewUserRepository,
			database.NewCustomerRepository,
			database.NewProductRepository,
			database.NewOrderRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewUserService,
			impl.NewCustomerService,
			impl.NewProductService,
			impl.NewOrderService,
			impl.NewExportService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewCustomerHandler,
			handler.NewProductHandler,
			handler.NewOrderHandler,
			handler.NewExportHandler,
			handler.NewHealthHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// ensureBootstrapAdmin runs after the database hook has migrated the schema.
func ensureBootstrapAdmin(lc fx.Lifecycle, userUC usecase.UserUsecase) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return userUC.EnsureBootstrapAdmin(ctx)
		},
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
