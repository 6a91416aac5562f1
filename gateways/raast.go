package gateways

import (
	"context"
	"fmt"
	"time"

	models "github.com/solvetogather/solvetogather-go/models"
)

// Raast settles instantly; there is no RAAST integration behind it.
type Raast struct {
	Now func() time.Time
}

func NewRaast() *Raast {
	return &Raast{Now: time.Now}
}

func (r *Raast) Method() string { return models.MethodRaast }

func (r *Raast) Submit(_ context.Context, _ Request) (string, error) {
	return fmt.Sprintf("RAST_%d", r.Now().UnixMilli()), nil
}
