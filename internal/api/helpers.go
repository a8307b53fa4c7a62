// Package api exposes the LCDB rails over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/micro-nova/lcdb-go/internal/lcdb"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	dev    Device
	events EventBus
}

// Device is the part of *lcdb.Device the handlers use.
type Device interface {
	Status() lcdb.Status
	Regulator(name string) (*lcdb.Regulator, error)
	SetVoltage(ctx context.Context, r lcdb.Rail, mv int) (int, error)
	Voltage(ctx context.Context, r lcdb.Rail) (int, error)
}

// EventBus is the interface for subscribing to status snapshots.
type EventBus interface {
	Subscribe(id string) <-chan lcdb.Status
	Unsubscribe(id string)
	Last() (lcdb.Status, bool)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as an AppError response.
func writeError(w http.ResponseWriter, err error) {
	appErr := toAppError(err)
	writeJSON(w, appErr.Status, appErr)
}
