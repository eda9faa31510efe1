package router

import (
	"hotel-user-api/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "hotel-user-api/docs"
)

func NewRouter(authHandler *handler.AuthHandler, userHandler *handler.UserHandler, adminHandler *handler.AdminHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Public auth endpoints
	mux.Handle("POST /api/auth/register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /api/auth/login", handler.ErrorHandlingMiddleware(authHandler.Login))
	mux.Handle("POST /api/auth/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))
	mux.Handle("POST /api/logout", handler.ErrorHandlingMiddleware(authHandler.Logout))

	// Authenticated endpoints
	mux.Handle("POST /api/logout/all", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(authHandler.LogoutAll)))
	mux.Handle("GET /api/user/profile", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(userHandler.GetProfile)))
	mux.Handle("PUT /api/user/profile", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(userHandler.UpdateProfile)))

	// Admin endpoints
	mux.Handle("GET /api/admin/users", handler.AuthMiddleware(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(adminHandler.ListUsers))))
	mux.Handle("PUT /api/admin/users/{id}/role", handler.AuthMiddleware(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(adminHandler.UpdateUserRole))))
	mux.Handle("PUT /api/admin/users/{id}/lock", handler.AuthMiddleware(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(adminHandler.LockUser))))

	return handler.RequestIDMiddleware(mux)
}
