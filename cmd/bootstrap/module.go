package bootstrap

import (
	"digital-store/cmd/bootstrap/components"

	"go.uber.org/fx"
)

// CoreModule is everything except the HTTP surface; storectl reuses it.
var CoreModule = fx.Options(
	ConfigModule,
	LoggerModule,
	MetricsModule,
	DBModule,
	RedisModule,
	KafkaModule,
	JWTModule,
	components.GatewayModule,
	components.PersistenceModule,
	components.UseCaseModule,
)

var Module = fx.Options(
	CoreModule,
	components.WorkerModule,
	components.HandlerModule,
)
