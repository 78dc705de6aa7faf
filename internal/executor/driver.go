// Package executor turns an allocation sequence into broker orders and keeps
// the position lifecycle consistent with the capital ledger: cash moves only
// after a confirmed fill, and exits credit the original investment before
// booking P&L.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"StockPilot/internal/model"
)

// Exit reasons recorded on the trade log.
const (
	ExitStopLoss   = "STOP_LOSS"
	ExitTakeProfit = "TAKE_PROFIT"
	ExitMaxHold    = "MAX_HOLD"
)

const (
	// Stop distance when the screener supplied an ATR, in ATR multiples.
	atrStopMultiple = 2.0
	// Fallback stop distance when no ATR is available.
	fallbackStopPct = 0.02
	// Reward-to-risk ratio for the take-profit target.
	rewardRiskRatio = 1.5
	// Absolute profit target cap per position, in rupees.
	maxProfitTarget = 3000.0
)

// PriceSource quotes current prices. Satisfied by collector fetchers.
type PriceSource interface {
	FetchCurrentPrice(symbol string) (float64, error)
}

// Store is the position and trade-log persistence the driver needs.
type Store interface {
	SavePosition(p *model.Position) error
	ClosePosition(id string, exitPrice, pnl float64, at time.Time) error
	ActivePositions(strategy model.Strategy) ([]model.Position, error)
	RecordTrade(t *model.Trade) error
}

// Ledger is the capital account surface the driver needs.
type Ledger interface {
	Debit(amount float64) error
	Credit(amount float64) error
	RecordPnL(pnl float64) error
	AvailableCash() (float64, error)
}

// Notifier pushes trade alerts. A nil Notifier disables alerts.
type Notifier interface {
	Send(text string) error
}

// Driver executes entries and exits for one strategy.
type Driver struct {
	strategy model.Strategy
	broker   Broker
	prices   PriceSource
	store    Store
	ledger   Ledger
	notify   Notifier
}

func New(strategy model.Strategy, broker Broker, prices PriceSource, store Store, ledger Ledger, notify Notifier) *Driver {
	return &Driver{
		strategy: strategy,
		broker:   broker,
		prices:   prices,
		store:    store,
		ledger:   ledger,
		notify:   notify,
	}
}

// EnterPositions works through the sequenced selections one by one. Failures
// on a single name (quote missing, order rejected, cash short) skip that name
// and continue; context cancellation stops the run between names.
func (d *Driver) EnterPositions(ctx context.Context, sequence []model.SelectedPosition) ([]model.Position, error) {
	entered := make([]model.Position, 0, len(sequence))
	for _, sel := range sequence {
		if err := ctx.Err(); err != nil {
			return entered, err
		}
		pos, err := d.enterOne(ctx, sel)
		if err != nil {
			log.Warn().Err(err).Str("ticker", sel.Ticker).Msg("entry skipped")
			continue
		}
		if pos != nil {
			entered = append(entered, *pos)
		}
	}
	log.Info().Str("strategy", string(d.strategy)).Int("entered", len(entered)).
		Int("planned", len(sequence)).Msg("entry run complete")
	return entered, nil
}

func (d *Driver) enterOne(ctx context.Context, sel model.SelectedPosition) (*model.Position, error) {
	price, err := d.prices.FetchCurrentPrice(sel.Ticker)
	if err != nil {
		if sel.Price > 0 {
			log.Warn().Err(err).Str("ticker", sel.Ticker).
				Msg("live quote unavailable, using screen price")
			price = sel.Price
		} else {
			return nil, fmt.Errorf("quote %s: %w", sel.Ticker, err)
		}
	}
	if price <= 0 {
		return nil, fmt.Errorf("quote %s: non-positive price %.2f", sel.Ticker, price)
	}

	qty := int(sel.PositionSize / price)
	if qty < 1 {
		log.Info().Str("ticker", sel.Ticker).Float64("price", price).
			Float64("size", sel.PositionSize).Msg("allocation below one share, skipped")
		return nil, nil
	}

	cost := price * float64(qty)
	cash, err := d.ledger.AvailableCash()
	if err != nil {
		return nil, err
	}
	if cost > cash {
		return nil, fmt.Errorf("cost %.2f exceeds available cash %.2f", cost, cash)
	}

	fill, err := d.broker.PlaceOrder(ctx, Order{
		Ticker:   sel.Ticker,
		Side:     SideBuy,
		Quantity: qty,
		Price:    price,
	})
	if err != nil {
		// Capital untouched: nothing was debited before the fill.
		return nil, fmt.Errorf("buy order: %w", err)
	}

	stop, target := protectiveLevels(fill.Price, sel.ATRPct, qty)
	pos := &model.Position{
		Ticker:     sel.Ticker,
		Strategy:   d.strategy,
		EntryPrice: fill.Price,
		Quantity:   qty,
		StopLoss:   stop,
		TakeProfit: target,
		Category:   sel.Category,
		Tier:       sel.Tier,
		EntryDate:  fill.At,
		Status:     model.StatusActive,
	}
	if err := d.store.SavePosition(pos); err != nil {
		return nil, err
	}
	if err := d.ledger.Debit(pos.Investment()); err != nil {
		return nil, err
	}
	if err := d.store.RecordTrade(&model.Trade{
		Ticker:   pos.Ticker,
		Strategy: d.strategy,
		Signal:   string(SideBuy),
		Price:    fill.Price,
		Quantity: qty,
		Notes:    fmt.Sprintf("%s tier %s", pos.Category, pos.Tier),
		At:       fill.At,
	}); err != nil {
		log.Error().Err(err).Str("ticker", pos.Ticker).Msg("trade log write failed")
	}

	d.send(fmt.Sprintf("🟢 <b>BUY %s</b> (%s)\n%d × ₹%s = ₹%s\nSL ₹%s | TP ₹%s",
		pos.Ticker, d.strategy, qty,
		humanize.CommafWithDigits(fill.Price, 2),
		humanize.CommafWithDigits(pos.Investment(), 0),
		humanize.CommafWithDigits(stop, 2),
		humanize.CommafWithDigits(target, 2)))
	return pos, nil
}

// MonitorPositions checks every active position against its stop loss, take
// profit and maximum holding period, exiting those that trigger. Returns the
// positions closed this pass.
func (d *Driver) MonitorPositions(ctx context.Context, maxHoldDays int) ([]model.Position, error) {
	active, err := d.store.ActivePositions(d.strategy)
	if err != nil {
		return nil, err
	}

	closed := make([]model.Position, 0)
	for i := range active {
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		pos := &active[i]

		price, err := d.prices.FetchCurrentPrice(pos.Ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", pos.Ticker).Msg("quote unavailable, position unchecked")
			continue
		}

		reason := exitReason(pos, price, maxHoldDays)
		if reason == "" {
			continue
		}
		if err := d.ExitPosition(ctx, pos, price, reason); err != nil {
			log.Error().Err(err).Str("ticker", pos.Ticker).Str("reason", reason).Msg("exit failed")
			continue
		}
		closed = append(closed, *pos)
	}
	return closed, nil
}

// ExitPosition sells the full position at the current price and settles the
// ledger: the original investment is credited back, then realized P&L is
// booked on top.
func (d *Driver) ExitPosition(ctx context.Context, pos *model.Position, price float64, reason string) error {
	fill, err := d.broker.PlaceOrder(ctx, Order{
		Ticker:   pos.Ticker,
		Side:     SideSell,
		Quantity: pos.Quantity,
		Price:    price,
	})
	if err != nil {
		return fmt.Errorf("sell order: %w", err)
	}

	pnl := (fill.Price - pos.EntryPrice) * float64(pos.Quantity)
	if err := d.store.ClosePosition(pos.ID, fill.Price, pnl, fill.At); err != nil {
		return err
	}
	if err := d.ledger.Credit(pos.Investment()); err != nil {
		return err
	}
	if err := d.ledger.RecordPnL(pnl); err != nil {
		return err
	}
	if err := d.store.RecordTrade(&model.Trade{
		Ticker:   pos.Ticker,
		Strategy: d.strategy,
		Signal:   string(SideSell),
		Price:    fill.Price,
		Quantity: pos.Quantity,
		PnL:      pnl,
		Notes:    reason,
		At:       fill.At,
	}); err != nil {
		log.Error().Err(err).Str("ticker", pos.Ticker).Msg("trade log write failed")
	}

	icon := "🔴"
	if pnl >= 0 {
		icon = "🟢"
	}
	d.send(fmt.Sprintf("%s <b>SELL %s</b> (%s, %s)\n%d × ₹%s\nP&L ₹%s",
		icon, pos.Ticker, d.strategy, reason, pos.Quantity,
		humanize.CommafWithDigits(fill.Price, 2),
		humanize.CommafWithDigits(pnl, 0)))

	pos.Status = model.StatusClosed
	pos.ExitDate = &fill.At
	pos.ExitPrice = &fill.Price
	pos.RealizedPnL = &pnl
	return nil
}

func (d *Driver) send(text string) {
	if d.notify == nil {
		return
	}
	if err := d.notify.Send(text); err != nil {
		log.Warn().Err(err).Msg("trade alert failed")
	}
}

// protectiveLevels derives the stop loss and take profit from the entry fill.
// The stop sits two ATRs below entry (2% without ATR data); the target pays
// 1.5x the risk, capped at a fixed rupee profit per position.
func protectiveLevels(entry, atrPct float64, qty int) (stop, target float64) {
	if atrPct > 0 {
		stop = entry - atrStopMultiple*(entry*atrPct/100)
	} else {
		stop = entry * (1 - fallbackStopPct)
	}
	if stop < 0 {
		stop = 0
	}

	riskPerShare := entry - stop
	targetPerShare := rewardRiskRatio * riskPerShare
	if limit := maxProfitTarget / float64(qty); targetPerShare > limit {
		targetPerShare = limit
	}
	target = entry + targetPerShare
	return stop, target
}

func exitReason(pos *model.Position, price float64, maxHoldDays int) string {
	switch {
	case price <= pos.StopLoss:
		return ExitStopLoss
	case price >= pos.TakeProfit:
		return ExitTakeProfit
	case maxHoldDays > 0 && heldDays(pos.EntryDate, time.Now()) >= maxHoldDays:
		return ExitMaxHold
	}
	return ""
}

// heldDays counts calendar dates between entry and now, so a position opened
// late on Monday is one day old first thing Tuesday.
func heldDays(entry, now time.Time) int {
	entry = entry.In(now.Location())
	entryDay := time.Date(entry.Year(), entry.Month(), entry.Day(), 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(today.Sub(entryDay).Hours() / 24)
}
