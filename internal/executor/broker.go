package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order is a market order request. Price is the reference quote used for
// sizing, not a limit.
type Order struct {
	Ticker   string
	Side     Side
	Quantity int
	Price    float64
}

// Fill is a confirmed execution.
type Fill struct {
	OrderID string
	Price   float64
	At      time.Time
}

// Broker places orders. Implementations must return an error for anything
// short of a confirmed fill; capital is only moved on a returned Fill.
type Broker interface {
	PlaceOrder(ctx context.Context, o Order) (*Fill, error)
	Name() string
}

// PaperBroker simulates instant fills at the reference price.
type PaperBroker struct{}

func NewPaperBroker() *PaperBroker {
	return &PaperBroker{}
}

func (b *PaperBroker) PlaceOrder(ctx context.Context, o Order) (*Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fill := &Fill{
		OrderID: uuid.NewString(),
		Price:   o.Price,
		At:      time.Now(),
	}
	log.Info().Str("ticker", o.Ticker).Str("side", string(o.Side)).
		Int("quantity", o.Quantity).Float64("price", fill.Price).
		Msg("paper order filled")
	return fill, nil
}

func (b *PaperBroker) Name() string {
	return "paper"
}
