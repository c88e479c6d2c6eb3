// @title           InvestorIQ API
// @version         1.0
// @description     Анализ объектов недвижимости: загрузка документов, отчёты в PDF, покупка пакетов кредитов.
// @contact.name    InvestorIQ
// @contact.email   support@investoriq.app
// @host            localhost:8001
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

package main

import (
	_ "investoriq_backend/docs"
	"investoriq_backend/internal/app"
)

func main() {
	app.Run()
}
