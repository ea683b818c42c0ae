package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/refhub/user-service/internal/interface/http"
)

// UserModule wires the account handlers into routes. All endpoints are
// public; login issues a stateless bearer token and nothing here reads
// one back.
//
//	POST   /api/users/register
//	POST   /api/users/login
//	GET    /api/users/
//	GET    /api/users/:id
//	PUT    /api/users/:id
//	DELETE /api/users/:id
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("/register", m.Handler.Register)
		users.POST("/login", m.Handler.Login)
		users.GET("/", m.Handler.GetAll)
		users.GET("/:id", m.Handler.GetByID)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
}
