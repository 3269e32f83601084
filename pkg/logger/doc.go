// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers so every component of the auth client logs the
// same keys (operation, flow, status, path, user_id, operation_id...).
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("LOG_ENV"), "authgate"),
//	    logger.WithLevelName(os.Getenv("LOG_LEVEL")),
//	)
//	log.InfoContext(ctx, "login succeeded",
//	    logger.Operation("login"),
//	    logger.UserID(user.ID),
//	)
//
// Components that accept an optional logger default to Discard so that a
// library consumer sees no output unless it opts in.
//
// Error returns an empty attribute for a nil error, so
//
//	log.Info("refresh finished", logger.Error(err))
//
// needs no nil check.
package logger
