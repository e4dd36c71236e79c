package app

import (
	"github.com/saradorri/tournamentledger/internal/domain"
	httpserver "github.com/saradorri/tournamentledger/internal/http"
	"github.com/saradorri/tournamentledger/internal/http/handlers"
)

func (a *application) InitHandlers(
	accountUC domain.AccountUseCase,
	settlementUC domain.SettlementUseCase,
	walletUC domain.WalletUseCase,
	auditUC domain.AuditUseCase,
) httpserver.Handlers {
	return httpserver.Handlers{
		Account:    handlers.NewAccountHandler(accountUC),
		Tournament: handlers.NewTournamentHandler(settlementUC),
		Wallet:     handlers.NewWalletHandler(walletUC, settlementUC),
		Audit:      handlers.NewAuditHandler(auditUC),
	}
}
