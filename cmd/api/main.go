// Package main Tournament Ledger API
//
// Tournament Ledger keeps player wallets for an esports tournament platform.
// It debits entry fees, refunds cancelled tournaments, pays out prizes and
// reconciles every stored balance against its transaction log.
//
//     Schemes: http, https
//     Host: localhost:8080
//     BasePath: /api/v1
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
package main

import (
	"context"

	_ "github.com/saradorri/tournamentledger/docs"
	"github.com/saradorri/tournamentledger/internal/app"
)

// @title Tournament Ledger API Service
// @version 1.0
// @description Wallet ledger and settlement engine for tournament entry fees, refunds and prizes.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	ctx := context.Background()
	application := app.NewApplication(ctx)
	application.Setup()
}
