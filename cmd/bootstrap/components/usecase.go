package components

import (
	"kitabu/internal/domain/validator"
	"kitabu/internal/pkg/clock"
	"kitabu/internal/pkg/config"
	"kitabu/internal/usecase/commands"
	"kitabu/internal/usecase/queries"
	"kitabu/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	validator.NewRegistry,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewReservationCommands,
		commands.NewSubjectCommands,
		commands.NewAuthCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAvailabilityQueries,
		queries.NewReservationQueries,
	),
)

func NewReservationCommands(u shared.UnitOfWork, clk clock.Clock, registry *validator.Registry, cfg config.Config) commands.ReservationCommands {
	return commands.NewReservationCommands(u, clk, registry, cfg.Reservation.GroupReserveDelay)
}
