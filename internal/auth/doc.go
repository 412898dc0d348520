// Package auth provides authentication and authorization.
//
// Users authenticate with email and password against the central
// database; a server-side session (scs, persisted into the central
// SQLite file) carries the user id and the currently selected unit.
// Every data route requires a logged-in session, and unit selection is
// checked against the user's access list on each switch.
//
// # Configuration
//
//	AUTH_SESSION_LIFETIME=24h   # Session duration
//	AUTH_BCRYPT_COST=12         # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true    # HTTPS-only cookies
//
// # Usage
//
//	service := auth.NewService(userRepo, cfg.Auth)
//	sessions, _ := auth.NewSessionManager(centralDB, cfg.Auth)
//	router.Use(sessions.SessionLoadSave())
//	router.Use(auth.NewMiddleware(service, sessions).Handler())
package auth
