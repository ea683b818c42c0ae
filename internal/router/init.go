package router

import (
	userapp "github.com/refhub/user-service/internal/application"
	"github.com/refhub/user-service/internal/container"
	pginfra "github.com/refhub/user-service/internal/infrastructure/postgres"
	handlers "github.com/refhub/user-service/internal/interface/http"
	"github.com/refhub/user-service/internal/router/modules"
)

func buildUserModule() *modules.UserModule {
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := userapp.NewService(
		repo,
		container.GetJWT(),
		container.GetRedis(),
		container.GetRabbitPub(),
		container.GetLogger(),
	)

	handler := handlers.NewUserHandler(service, container.GetLogger())

	return modules.NewUserModule(handler)
}

// InitModules wires all application modules into the router registry.
// Called once during startup, after the container singletons are set.
func InitModules(r *Registry) {
	r.Add(buildUserModule())
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
