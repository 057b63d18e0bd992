package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")
	auth := api.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/refresh", s.refreshToken)

	// Confirmation links arrive unauthenticated: the key is the capability.
	accounts := api.Group("/accounts")
	accounts.GET("/confirm-new-email/:key", s.confirmNewEmail)
	accounts.POST("/confirm-new-email", s.confirmNewEmail)

	protected := api.Group("")
	protected.Use(s.middleware.JWT.RequireJWT())

	protected.POST("/auth/logout", s.logout)

	settings := protected.Group("/settings")
	settings.PATCH("/email", s.requestEmailChange)

	users := protected.Group("/users")
	users.GET("/me", s.getOwnProfile)
	users.GET("", s.listRealmUsers, s.middleware.Role.RequireAdmin())
	users.POST("", s.createUser, s.middleware.Role.RequireAdmin())
	users.PUT("/:id", s.updateUser, s.middleware.Role.RequireAdmin())

	realms := protected.Group("/realm")
	realms.GET("", s.getOwnRealm)
	realms.PATCH("/settings", s.updateRealmSettings, s.middleware.Role.RequireAdmin())
	realms.PUT("/status", s.setRealmStatus, s.middleware.Role.RequireAdmin())

	audit := protected.Group("/audit")
	audit.GET("/logs", s.getAuditLogs, s.middleware.Role.RequireAdmin())
}
