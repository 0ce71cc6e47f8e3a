// Carts: time-delayed, distance-proportional deliveries.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/scenario"
	"github.com/talgya/kingdom-sim/internal/social"
	"github.com/talgya/kingdom-sim/internal/world"
)

// ErrUnknownDestination means a cart arrived somewhere that does not exist.
var ErrUnknownDestination = errors.New("cart destination does not exist")

// Cart is an in-flight delivery.
type Cart struct {
	ID       uint64           `json:"id"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Resource economy.Resource `json:"resource"`
	Gross    float64          `json:"gross"` // debited at the source
	Cargo    float64          `json:"cargo"` // credited on arrival
	Start    world.Point      `json:"start"`
	End      world.Point      `json:"end"`
	Position world.Point      `json:"position"`
	Elapsed  float64          `json:"elapsed"`
	Duration float64          `json:"duration"` // ticks
	Progress float64          `json:"progress"`
	Departed uint64           `json:"departed"`
}

// Delivery is a cart that completed this tick.
type Delivery struct {
	CartID   uint64           `json:"cart_id"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Resource economy.Resource `json:"resource"`
	Amount   float64          `json:"amount"`
}

// Transport owns every cart in flight.
type Transport struct {
	cfg    scenario.TransportConfig
	carts  []*Cart
	nextID uint64

	Shipped   float64 // gross amount ever loaded
	Delivered float64 // amount ever credited
	Lost      float64 // efficiency loss
}

// NewTransport creates an empty cart layer.
func NewTransport(cfg scenario.TransportConfig) *Transport {
	return &Transport{cfg: cfg}
}

// Carts returns the carts in flight, oldest first.
func (t *Transport) Carts() []*Cart { return t.carts }

// InFlight returns the number of carts on the road.
func (t *Transport) InFlight() int { return len(t.carts) }

// Dispatch loads tr onto a cart. The source is debited now; the cargo is the
// debited amount less the efficiency loss. It returns nil when the source
// had nothing to load.
func (t *Transport) Dispatch(tr Transfer, from, to *social.Settlement, tick uint64) *Cart {
	gross := from.Resources.Debit(tr.Resource, tr.Amount)
	if gross <= 0 {
		return nil
	}
	cargo := gross * t.cfg.Efficiency

	dist := world.Distance(from.Position, to.Position)
	duration := math.Max(t.cfg.MinCartTicks, dist/t.cfg.CartSpeed)

	t.nextID++
	c := &Cart{
		ID:       t.nextID,
		From:     from.Name,
		To:       to.Name,
		Resource: tr.Resource,
		Gross:    gross,
		Cargo:    cargo,
		Start:    from.Position,
		End:      to.Position,
		Position: from.Position,
		Duration: duration,
		Departed: tick,
	}
	t.carts = append(t.carts, c)
	t.Shipped += gross
	t.Lost += gross - cargo
	return c
}

// Advance moves every cart forward dt ticks and unloads arrivals. Carts bound
// for an unknown settlement are dropped and reported as an error.
func (t *Transport) Advance(dt float64, lookup func(name string) *social.Settlement) ([]Delivery, error) {
	var delivered []Delivery
	var faults []error

	remaining := t.carts[:0]
	for _, c := range t.carts {
		c.Elapsed += dt
		c.Progress = math.Min(1, c.Elapsed/c.Duration)
		c.Position = world.Lerp(c.Start, c.End, c.Progress)
		if c.Progress < 1 {
			remaining = append(remaining, c)
			continue
		}

		dest := lookup(c.To)
		if dest == nil {
			faults = append(faults, fmt.Errorf("cart %d to %q: %w", c.ID, c.To, ErrUnknownDestination))
			continue
		}
		dest.Resources.Add(c.Resource, c.Cargo)
		t.Delivered += c.Cargo
		delivered = append(delivered, Delivery{
			CartID:   c.ID,
			From:     c.From,
			To:       c.To,
			Resource: c.Resource,
			Amount:   c.Cargo,
		})
	}
	// Clear the tail so dropped carts can be collected.
	for i := len(remaining); i < len(t.carts); i++ {
		t.carts[i] = nil
	}
	t.carts = remaining
	return delivered, errors.Join(faults...)
}
