package components

import (
	"digital-store/internal/pkg/clock"
	"digital-store/internal/usecase"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	commands.NewAllocator,
	commands.NewStateMachine,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewDispatcher,
		commands.NewRewardEngine,
		commands.NewSweeper,
		commands.NewReconciler,
		commands.NewJobRunner,
		commands.NewIngestor,
		fx.Annotate(
			commands.NewPurchaseService,
			fx.As(new(commands.OrderCommands)),
		),
		fx.Annotate(
			commands.NewUserService,
			fx.As(new(commands.UserCommands)),
		),
		fx.Annotate(
			commands.NewAdminService,
			fx.As(new(commands.AdminCommands)),
		),
		fx.Annotate(
			commands.NewAuthService,
			fx.As(new(commands.AuthCommands)),
		),
		func(i *commands.Ingestor) commands.WebhookCommands {
			return i
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewOrderQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
