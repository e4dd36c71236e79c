package app

import (
	"github.com/saradorri/tournamentledger/internal/http/middleware"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
)

func (a *application) InitErrorHandler(log *logger.Logger) *middleware.ErrorHandler {
	return middleware.NewErrorHandler(log)
}
