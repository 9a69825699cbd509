/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/events"
	"github.com/humaidq/tally/finance"
)

var (
	getInvestmentDBFn = db.GetInvestment
	createTradeDBFn   = db.CreateTrade
	deleteTradeDBFn   = db.DeleteTrade
)

type portfolioTotals struct {
	MarketValue    decimal.Decimal
	CostBasis      decimal.Decimal
	UnrealizedGain decimal.Decimal
	RealizedGain   decimal.Decimal
}

// InvestmentsList renders all holdings with their positions.
func InvestmentsList(c flamego.Context, user CurrentUser, t template.Template, data template.Data) {
	investments, err := db.ListInvestments(c.Request().Context(), user.ID)
	if err != nil {
		logger.Error("Error fetching investments", "error", err)
		data["Error"] = "Failed to load investments"
		investments = []db.InvestmentWithPosition{}
	}

	data["Investments"] = investments
	data["Totals"] = sumPortfolio(investments)
	data["IsInvestments"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Investments", URL: "/investments", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "investments")
}

// InvestmentNewForm renders the add investment page.
func InvestmentNewForm(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	accounts, err := db.ListAccounts(c.Request().Context(), user.ID)
	if err != nil {
		logger.Error("Error fetching accounts", "error", err)
		data["Error"] = "Failed to load accounts"
	} else if len(accounts) == 0 {
		SetInfoFlash(s, "Create an account first")
		c.Redirect("/accounts/new", http.StatusSeeOther)

		return
	}

	data["Accounts"] = accounts
	data["AssetTypeOptions"] = assetTypeOptions()
	data["IsInvestments"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Investments", URL: "/investments"},
		{Name: "New", URL: "/investments/new", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "investment_new")
}

// CreateInvestment adds a holding. Cash only moves when trades are recorded.
func CreateInvestment(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing investment form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/investments/new", http.StatusSeeOther)

		return
	}

	form := c.Request().Form

	accountID, err := uuid.Parse(strings.TrimSpace(form.Get("account_id")))
	if err != nil {
		SetErrorFlash(s, "Account is required")
		c.Redirect("/investments/new", http.StatusSeeOther)

		return
	}

	price, err := parseOptionalAmount(form.Get("current_price"))
	if err != nil {
		SetErrorFlash(s, "Price must be a number")
		c.Redirect("/investments/new", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	investmentID, err := db.CreateInvestment(ctx, user.ID, db.InvestmentInput{
		AccountID:    accountID,
		Symbol:       form.Get("symbol"),
		Name:         form.Get("name"),
		AssetType:    db.AssetType(strings.TrimSpace(form.Get("asset_type"))),
		CurrentPrice: price,
	})
	if err != nil {
		logger.Error("Error creating investment", "error", err)
		setMutationErrorFlash(s, err, "Failed to add investment")
		c.Redirect("/investments/new", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Investment added")
	c.Redirect("/investments/"+investmentID.String(), http.StatusSeeOther)
}

// InvestmentView renders a holding with its trades and position.
func InvestmentView(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	investmentID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid investment ID")
		c.Redirect("/investments", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	investment, err := db.GetInvestment(ctx, user.ID, investmentID)
	if err != nil {
		logger.Error("Error fetching investment", "error", err)
		setMutationErrorFlash(s, err, "Failed to load investment")
		c.Redirect("/investments", http.StatusSeeOther)

		return
	}

	trades, err := db.ListTrades(ctx, user.ID, investmentID)
	if err != nil {
		logger.Error("Error fetching trades", "error", err)
		data["Error"] = "Failed to load trades"
		trades = []db.InvestmentTrade{}
	}

	financeTrades := make([]finance.Trade, 0, len(trades))
	for _, trade := range trades {
		financeTrades = append(financeTrades, trade.Trade())
	}

	position, err := finance.BuildPosition(financeTrades, investment.CurrentPrice)
	if err != nil {
		logger.Error("Error building position", "investment_id", investmentID, "error", err)
		data["Error"] = "Trades are inconsistent"
	}

	data["Investment"] = investment
	data["Trades"] = trades
	data["Position"] = position
	data["Today"] = today(time.Now()).Format(formDateLayout)
	data["IsInvestments"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Investments", URL: "/investments"},
		{Name: investment.Symbol, URL: "/investments/" + investment.ID.String(), IsCurrent: true},
	}

	t.HTML(http.StatusOK, "investment_view")
}

// UpdateInvestmentPrice sets the current market price of a holding.
func UpdateInvestmentPrice(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	investmentID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid investment ID")
		c.Redirect("/investments", http.StatusSeeOther)

		return
	}

	viewURL := "/investments/" + investmentID.String()

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing price form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	price, err := finance.ParseAmount(c.Request().Form.Get("current_price"))
	if err != nil {
		SetErrorFlash(s, "Price must be a number")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	if err := db.UpdateInvestmentPrice(ctx, user.ID, investmentID, price); err != nil {
		logger.Error("Error updating investment price", "error", err)
		setMutationErrorFlash(s, err, "Failed to update price")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Price updated")
	c.Redirect(viewURL, http.StatusSeeOther)
}

// DeleteInvestment removes a holding and reverses the cash effect of its trades.
func DeleteInvestment(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	investmentID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid investment ID")
		c.Redirect("/investments", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	deleted, err := db.DeleteInvestment(ctx, user.ID, investmentID)
	if err != nil {
		logger.Error("Error deleting investment", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete investment")
		c.Redirect("/investments/"+investmentID.String(), http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)
	logger.Info("Investment deleted", "user_id", user.ID, "symbol", deleted.Symbol)

	SetSuccessFlash(s, "Investment deleted")
	c.Redirect("/investments", http.StatusSeeOther)
}

// CreateTrade records a buy or sell and moves cash on the funding account.
func CreateTrade(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	investmentID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid investment ID")
		c.Redirect("/investments", http.StatusSeeOther)

		return
	}

	viewURL := "/investments/" + investmentID.String()

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing trade form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	form := c.Request().Form

	side := finance.TradeSide(strings.ToLower(strings.TrimSpace(form.Get("side"))))
	if !finance.IsValidTradeSide(side) {
		SetErrorFlash(s, "Trade side must be buy or sell")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	quantity, err := finance.ParseAmount(form.Get("quantity"))
	if err != nil || !quantity.IsPositive() {
		SetErrorFlash(s, "Quantity must be greater than zero")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	price, err := finance.ParseAmount(form.Get("price"))
	if err != nil {
		SetErrorFlash(s, "Price must be a number")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	fee, err := parseOptionalAmount(form.Get("fee"))
	if err != nil {
		SetErrorFlash(s, "Fee must be a number")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	tradedAt, err := parseFormDateOrToday(form.Get("traded_at"), time.Now())
	if err != nil {
		SetErrorFlash(s, "Invalid trade date")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	investment, err := getInvestmentDBFn(ctx, user.ID, investmentID)
	if err != nil {
		logger.Error("Error fetching investment", "error", err)
		setMutationErrorFlash(s, err, "Failed to record trade")
		c.Redirect("/investments", http.StatusSeeOther)

		return
	}

	trade, err := createTradeDBFn(ctx, user.ID, investmentID, db.TradeInput{
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Fee:      fee,
		TradedAt: tradedAt,
	})
	if err != nil {
		logger.Error("Error creating trade", "error", err)
		setMutationErrorFlash(s, err, "Failed to record trade")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	evts := []events.Event{
		events.New(events.TradeCreated, user.ID, trade.ID, map[string]string{
			"symbol":   investment.Symbol,
			"side":     string(trade.Side),
			"quantity": trade.Quantity.String(),
			"price":    trade.Price.String(),
		}),
	}
	if delta, err := finance.TradeDelta(trade.Side, trade.Quantity, trade.Price, trade.Fee); err == nil {
		evts = append(evts, balanceChangedEvent(user.ID, investment.AccountID, delta))
	}

	recordMutation(ctx, store, pub, user.ID, evts...)

	SetSuccessFlash(s, "Trade recorded")
	c.Redirect(viewURL, http.StatusSeeOther)
}

// DeleteTrade removes a trade and reverses its cash effect.
func DeleteTrade(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	investmentID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid investment ID")
		c.Redirect("/investments", http.StatusSeeOther)

		return
	}

	viewURL := "/investments/" + investmentID.String()

	tradeID, ok := parseIDParam(c, "trade_id")
	if !ok {
		SetErrorFlash(s, "Invalid trade ID")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	investment, err := getInvestmentDBFn(ctx, user.ID, investmentID)
	if err != nil {
		logger.Error("Error fetching investment", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete trade")
		c.Redirect("/investments", http.StatusSeeOther)

		return
	}

	deleted, err := deleteTradeDBFn(ctx, user.ID, investmentID, tradeID)
	if err != nil {
		logger.Error("Error deleting trade", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete trade")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	evts := []events.Event{events.New(events.TradeDeleted, user.ID, deleted.ID, nil)}
	if delta, err := finance.TradeDelta(deleted.Side, deleted.Quantity, deleted.Price, deleted.Fee); err == nil {
		evts = append(evts, balanceChangedEvent(user.ID, investment.AccountID, finance.Reverse(delta)))
	}

	recordMutation(ctx, store, pub, user.ID, evts...)

	SetSuccessFlash(s, "Trade deleted")
	c.Redirect(viewURL, http.StatusSeeOther)
}

func assetTypeOptions() []selectOption {
	options := make([]selectOption, 0, len(db.AssetTypes))
	for _, assetType := range db.AssetTypes {
		options = append(options, selectOption{
			Value: string(assetType),
			Label: titleCase(string(assetType)),
		})
	}

	return options
}

func sumPortfolio(investments []db.InvestmentWithPosition) portfolioTotals {
	totals := portfolioTotals{
		MarketValue:    decimal.Zero,
		CostBasis:      decimal.Zero,
		UnrealizedGain: decimal.Zero,
		RealizedGain:   decimal.Zero,
	}

	for _, investment := range investments {
		totals.MarketValue = totals.MarketValue.Add(investment.Position.MarketValue)
		totals.CostBasis = totals.CostBasis.Add(investment.Position.CostBasis)
		totals.UnrealizedGain = totals.UnrealizedGain.Add(investment.Position.UnrealizedGain)
		totals.RealizedGain = totals.RealizedGain.Add(investment.Position.RealizedGain)
	}

	return totals
}
