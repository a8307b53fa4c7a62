package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"periph.io/x/conn/v3/physic"

	"github.com/micro-nova/lcdb-go/internal/lcdb"
)

// RailInfo describes one rail. Enabled and State reflect the shared
// module, so they are the same for every rail.
type RailInfo struct {
	Type      string     `json:"rail"`
	Name      string     `json:"name,omitempty"`
	Supply    string     `json:"supply,omitempty"`
	State     lcdb.State `json:"state"`
	Enabled   bool       `json:"enabled"`
	VoltageMV int        `json:"voltage_mv"`
	Voltage   string     `json:"voltage"`
}

// VoltageRequest is the body of PUT /api/rails/{rail}/voltage.
type VoltageRequest struct {
	MV *int `json:"mv"`
}

func formatMV(mv int) string {
	return (physic.ElectricPotential(mv) * physic.MilliVolt).String()
}

// target is a resolved {rail} path parameter. reg is nil for the boost.
type target struct {
	rail lcdb.Rail
	reg  *lcdb.Regulator
}

func (h *Handlers) resolve(r *http.Request) (target, error) {
	name := chi.URLParam(r, "rail")
	if name == lcdb.BST.String() {
		return target{rail: lcdb.BST}, nil
	}
	reg, err := h.dev.Regulator(name)
	if err != nil {
		return target{}, err
	}
	return target{rail: reg.Rail(), reg: reg}, nil
}

func (h *Handlers) info(t target, mv int) RailInfo {
	st := h.dev.Status()
	ri := RailInfo{
		Type:      t.rail.String(),
		State:     st.State,
		Enabled:   st.State == lcdb.Enabled,
		VoltageMV: mv,
		Voltage:   formatMV(mv),
	}
	if t.reg != nil {
		ri.Name = t.reg.Name()
		ri.Supply = t.reg.Supply()
	}
	return ri
}

func cachedMV(st lcdb.Status, r lcdb.Rail) int {
	switch r {
	case lcdb.BST:
		return st.BSTVoltageMV
	case lcdb.LDO:
		return st.LDOVoltageMV
	default:
		return st.NCPVoltageMV
	}
}

// getRails lists every rail from the cached snapshot without touching the
// bus.
func (h *Handlers) getRails(w http.ResponseWriter, r *http.Request) {
	st := h.dev.Status()
	rails := make([]RailInfo, 0, 3)
	for _, rail := range []lcdb.Rail{lcdb.BST, lcdb.LDO, lcdb.NCP} {
		t := target{rail: rail}
		if rail != lcdb.BST {
			reg, err := h.dev.Regulator(rail.String())
			if err != nil {
				writeError(w, err)
				return
			}
			t.reg = reg
		}
		rails = append(rails, h.info(t, cachedMV(st, rail)))
	}
	writeJSON(w, http.StatusOK, rails)
}

// getRail reads the rail's voltage back from hardware.
func (h *Handlers) getRail(w http.ResponseWriter, r *http.Request) {
	t, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	mv, err := h.dev.Voltage(r.Context(), t.rail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.info(t, mv))
}

func (h *Handlers) enableRail(w http.ResponseWriter, r *http.Request) {
	t, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if t.reg == nil {
		writeError(w, errMethodNotAllowed("bst follows the module enable of ldo and ncp"))
		return
	}
	if err := t.reg.Enable(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.info(t, cachedMV(h.dev.Status(), t.rail)))
}

func (h *Handlers) disableRail(w http.ResponseWriter, r *http.Request) {
	t, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if t.reg == nil {
		writeError(w, errMethodNotAllowed("bst follows the module enable of ldo and ncp"))
		return
	}
	if err := t.reg.Disable(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.info(t, cachedMV(h.dev.Status(), t.rail)))
}

func (h *Handlers) setVoltage(w http.ResponseWriter, r *http.Request) {
	t, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req VoltageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errBadRequest("invalid JSON: "+err.Error()))
		return
	}
	if req.MV == nil {
		writeError(w, errBadRequest("mv is required"))
		return
	}
	mv, err := h.dev.SetVoltage(r.Context(), t.rail, *req.MV)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.info(t, mv))
}
