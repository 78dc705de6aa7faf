package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"StockPilot/internal/model"
)

func rupees(v float64) string {
	return "₹" + humanize.CommafWithDigits(v, 0)
}

var regimeIcons = map[model.Regime]string{
	model.RegimeBull:    "🟢",
	model.RegimeNeutral: "🟡",
	model.RegimeCaution: "🟠",
	model.RegimeBear:    "🔴",
}

// FormatRegimeReport formats the morning regime classification.
func FormatRegimeReport(state *model.RegimeState, guidance string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>Market Regime: %s</b> | %s\n\n",
		regimeIcons[state.Regime], state.Regime, state.AsOf.Format("2006-01-02")))

	b.WriteString("📈 <b>Signals:</b>\n")
	for _, sig := range state.Signals {
		b.WriteString("  " + sig + "\n")
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Composite score: %+.1f\n\n", state.Score))

	b.WriteString(fmt.Sprintf("💰 Position sizing: %.0f%% of capital\n", state.SizeMultiplier*100))
	if !state.AllowNewEntries {
		b.WriteString("🚫 New entries blocked today\n")
	}
	if guidance != "" {
		b.WriteString("\n" + guidance + "\n")
	}
	return b.String()
}

// FormatAllocationPlan formats an allocation plan before execution.
func FormatAllocationPlan(plan *model.AllocationPlan) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🧮 <b>%s Allocation</b> (%s, ×%.2f)\n\n",
		plan.Strategy, plan.Regime, plan.Multiplier))

	if plan.TotalPositions == 0 {
		b.WriteString("No positions planned")
		if plan.Reason != "" {
			b.WriteString(": " + plan.Reason)
		}
		return b.String()
	}

	for _, cat := range model.CategoryOrder {
		alloc := plan.Category(cat)
		if alloc.Positions == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("<b>%s</b>: %d positions, %s\n",
			strings.ToUpper(string(cat)), alloc.Positions, rupees(alloc.Capital)))
		for _, sel := range alloc.Selected {
			b.WriteString(fmt.Sprintf("  %s [%s] %s\n", sel.Ticker, sel.Tier, rupees(sel.PositionSize)))
		}
	}
	b.WriteString(fmt.Sprintf("\nTotal: %d positions, %s of %s",
		plan.TotalPositions, rupees(plan.TotalDeployed), rupees(plan.TotalCapital)))
	return b.String()
}

// FormatCapitalStatus formats a strategy's capital account.
func FormatCapitalStatus(acc *model.CapitalAccount, deployed float64, openPositions int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>%s Capital</b>\n\n", acc.Strategy))
	b.WriteString(fmt.Sprintf("Trading capital: %s\n", rupees(acc.TradingCapital(deployed))))
	b.WriteString(fmt.Sprintf("Available cash: %s\n", rupees(acc.AvailableCash)))
	b.WriteString(fmt.Sprintf("Deployed: %s in %d positions\n", rupees(deployed), openPositions))
	b.WriteString(fmt.Sprintf("Profits locked: %s | Losses: %s\n",
		rupees(acc.ProfitsLocked), rupees(acc.TotalLosses)))
	b.WriteString(fmt.Sprintf("Updated: %s\n", acc.UpdatedAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatPositions formats the open position list for a strategy.
func FormatPositions(strategy model.Strategy, positions []model.Position) string {
	if len(positions) == 0 {
		return fmt.Sprintf("📭 No open %s positions", strategy)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>%s Positions</b> (%d)\n\n", strategy, len(positions)))
	for _, p := range positions {
		b.WriteString(fmt.Sprintf("%s [%s] %d × ₹%s\n  SL ₹%s | TP ₹%s | since %s\n",
			p.Ticker, p.Tier, p.Quantity,
			humanize.CommafWithDigits(p.EntryPrice, 2),
			humanize.CommafWithDigits(p.StopLoss, 2),
			humanize.CommafWithDigits(p.TakeProfit, 2),
			p.EntryDate.Format("Jan 2")))
	}
	return b.String()
}

// FormatEODSummary formats the end-of-day report from the day's trades, the
// current capital accounts and the open position counts per strategy.
func FormatEODSummary(trades []model.Trade, accounts []*model.CapitalAccount, open map[model.Strategy]int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌙 <b>End of Day</b> | %s\n\n", time.Now().Format("2006-01-02")))

	buys, sells := 0, 0
	realized := 0.0
	for _, t := range trades {
		switch t.Signal {
		case "BUY":
			buys++
		case "SELL":
			sells++
			realized += t.PnL
		}
	}
	b.WriteString(fmt.Sprintf("Trades: %d entries, %d exits\n", buys, sells))
	if sells > 0 {
		b.WriteString(fmt.Sprintf("Realized P&L: %s\n", rupees(realized)))
	}

	if sells > 0 {
		b.WriteString("\n<b>Exits:</b>\n")
		for _, t := range trades {
			if t.Signal != "SELL" {
				continue
			}
			icon := "🔴"
			if t.PnL >= 0 {
				icon = "🟢"
			}
			b.WriteString(fmt.Sprintf("  %s %s %s (%s)\n", icon, t.Ticker, rupees(t.PnL), t.Notes))
		}
	}

	b.WriteString("\n<b>Capital:</b>\n")
	for _, acc := range accounts {
		b.WriteString(fmt.Sprintf("  %s: cash %s, profits %s, losses %s, %d open\n",
			acc.Strategy, rupees(acc.AvailableCash), rupees(acc.ProfitsLocked),
			rupees(acc.TotalLosses), open[acc.Strategy]))
	}
	return b.String()
}
