package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"

	"github.com/fsnotify/fsnotify"

	"github.com/micro-nova/lcdb-go/internal/lcdb"
)

// VoltageSetter is the part of the device the watcher drives.
type VoltageSetter interface {
	SetVoltage(ctx context.Context, r lcdb.Rail, mv int) (int, error)
}

// Watcher re-reads the configuration file whenever it changes and applies
// new voltage-mv values to the running device. Everything else in the
// file is fixed at bring-up and only logged.
type Watcher struct {
	path    string
	dev     VoltageSetter
	current lcdb.Config
	watcher *fsnotify.Watcher
}

// NewWatcher watches path's directory. current is the configuration the
// device was brought up with.
func NewWatcher(path string, current lcdb.Config, dev VoltageSetter) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, dev: dev, current: current, watcher: fw}, nil
}

// Close stops the file watcher.
func (w *Watcher) Close() error { return w.watcher.Close() }

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if err := w.Reload(ctx); err != nil {
				slog.Warn("config: failed to reload", "path", w.path, "err", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}

// Reload reads the file and applies any voltage change. An invalid file
// is rejected as a whole and the running configuration is kept.
func (w *Watcher) Reload(ctx context.Context) error {
	next, err := Load(w.path)
	if err != nil {
		return err
	}

	prev := w.current
	var errs error
	for _, r := range []lcdb.Rail{lcdb.BST, lcdb.LDO, lcdb.NCP} {
		was, now := voltageOf(&prev, r), voltageOf(&next, r)
		switch {
		case now == nil:
			if was != nil {
				slog.Info("config: voltage-mv removed, keeping programmed value", "rail", r.String())
			}
		case was == nil || *was != *now:
			mv, err := w.dev.SetVoltage(ctx, r, *now)
			if err != nil {
				errs = errors.Join(errs, fmt.Errorf("config: apply %s voltage-mv: %w", r, err))
				// keep the old value so the next reload retries
				setVoltageOf(&next, r, was)
				continue
			}
			slog.Info("config: voltage applied", "rail", r.String(), "mv", mv)
		}
	}

	if !reflect.DeepEqual(withoutVoltages(prev), withoutVoltages(next)) {
		slog.Warn("config: changes other than voltage-mv require a restart", "path", w.path)
	}
	w.current = next
	return errs
}

func voltageOf(c *lcdb.Config, r lcdb.Rail) *int {
	switch r {
	case lcdb.BST:
		return c.BST.VoltageMV
	case lcdb.LDO:
		return c.LDO.VoltageMV
	default:
		return c.NCP.VoltageMV
	}
}

func setVoltageOf(c *lcdb.Config, r lcdb.Rail, mv *int) {
	switch r {
	case lcdb.BST:
		c.BST.VoltageMV = mv
	case lcdb.LDO:
		c.LDO.VoltageMV = mv
	default:
		c.NCP.VoltageMV = mv
	}
}

func withoutVoltages(c lcdb.Config) lcdb.Config {
	c.BST.VoltageMV = nil
	c.LDO.VoltageMV = nil
	c.NCP.VoltageMV = nil
	return c
}
