// Command lcdbd drives an LCDB display bias PMIC and serves its rails over
// HTTP. Run with --mock to use a simulated register file instead of I2C.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/micro-nova/lcdb-go/internal/api"
	"github.com/micro-nova/lcdb-go/internal/config"
	"github.com/micro-nova/lcdb-go/internal/events"
	"github.com/micro-nova/lcdb-go/internal/lcdb"
	"github.com/micro-nova/lcdb-go/internal/regmap"
	"github.com/micro-nova/lcdb-go/internal/zeroconf"
)

func main() {
	var (
		cfgPath   = flag.String("config", "/etc/lcdb/lcdb.yaml", "device configuration file")
		mock      = flag.Bool("mock", false, "use a simulated register file (no I2C device required)")
		transport = flag.String("transport", "periph", "I2C transport: periph or i2cdev")
		busName   = flag.String("bus", "", "I2C bus (periph bus name, or /dev/i2c-N for i2cdev)")
		i2cAddr   = flag.String("i2c-addr", "0x08", "7-bit I2C address of the PMIC")
		addr      = flag.String("addr", ":8080", "HTTP listen address")
		watch     = flag.Bool("watch", true, "apply voltage-mv changes from the config file at runtime")
		mdns      = flag.String("mdns", "", "advertise the API over mDNS under this instance name")
		debug     = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("cannot load configuration", "path", *cfgPath, "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus, closeBus, err := openBus(*mock, *transport, *busName, *i2cAddr, cfg.Base)
	if err != nil {
		slog.Error("register bus initialization failed", "transport", *transport, "err", err)
		os.Exit(1)
	}
	defer closeBus()

	hub := events.NewBus()
	dev, err := lcdb.New(ctx, regmap.New(bus, cfg.Base), cfg, lcdb.WithNotify(hub.Publish))
	if err != nil {
		slog.Error("device initialization failed", "err", err)
		os.Exit(1)
	}

	if *watch {
		w, err := config.NewWatcher(*cfgPath, cfg, dev)
		if err != nil {
			slog.Warn("config watcher unavailable", "err", err)
		} else {
			defer w.Close()
			go w.Run(ctx)
		}
	}

	if *mdns != "" {
		port, err := zeroconf.PortFromAddr(*addr)
		if err != nil {
			slog.Warn("mDNS disabled", "addr", *addr, "err", err)
		} else {
			zc := zeroconf.New(*mdns, port, []string{"ldo=" + cfg.LDO.Name, "ncp=" + cfg.NCP.Name})
			go func() {
				if err := zc.Start(ctx); err != nil {
					slog.Warn("zeroconf failed", "err", err)
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(dev, hub),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("lcdbd listening", "addr", *addr, "mock", *mock, "config", *cfgPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// openBus selects the register transport. The returned func releases it.
func openBus(mock bool, transport, name, addrFlag string, base uint16) (regmap.Bus, func(), error) {
	if mock {
		slog.Info("using simulated register file")
		return simulatedChip(base), func() {}, nil
	}

	addr, err := strconv.ParseUint(addrFlag, 0, 7)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --i2c-addr %q: %w", addrFlag, err)
	}

	switch transport {
	case "periph":
		p, err := regmap.OpenPeriph(name, uint16(addr))
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	case "i2cdev":
		if name == "" {
			name = "/dev/i2c-1"
		}
		d := regmap.NewI2CDev(name, uint16(addr))
		if err := d.Open(); err != nil {
			return nil, nil, err
		}
		return d, func() { d.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", transport)
	}
}

// simulatedChip is a register file whose outputs report stable as soon as
// the module is enabled.
func simulatedChip(base uint16) *regmap.Mock {
	m := regmap.NewMock()
	m.OnWrite(func(addr uint16, val byte, set func(uint16, byte)) {
		if addr != base+lcdb.RegEnableCtl1 {
			return
		}
		var sts byte
		if val&lcdb.ModuleEnBit != 0 {
			sts = lcdb.VregOKRTStsBit
		}
		set(base+lcdb.RegIntRTStatus, sts)
	})
	return m
}
