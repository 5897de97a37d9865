// Command edtrt-demo is a sample program: it brings up the compute
// domain, runs a trivial mainEdt once at startup, resubmits it on a
// cron schedule, and exposes a debug HTTP introspection surface.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/compute"
	"github.com/open-edt/edtrt/dispatch"
	"github.com/open-edt/edtrt/runlevel"
	"github.com/open-edt/edtrt/task"
)

// mainEdt prints the worker that ran it and returns immediately; real
// programs replace this with whatever graph of CreateTask/CreateEvent
// calls their domain needs.
func mainEdt(ctx context.Context, paramv []uint64, depv []task.Dependence) (edtrt.Guid, error) {
	log.Printf("edtrt-demo: mainEdt running on worker %d", dispatch.CurrentWorker(ctx))
	return edtrt.NilGuid, nil
}

func main() {
	logger := edtrt.NewDefaultLogger()

	rt, err := edtrt.NewRuntime(edtrt.WithLogger(logger))
	if err != nil {
		log.Fatalf("edtrt-demo: build runtime: %v", err)
	}

	sub := compute.NewSubsystem(rt, compute.Config{}, mainEdt)
	if err := rt.RegisterSubsystem(sub); err != nil {
		log.Fatalf("edtrt-demo: register compute subsystem: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Up(ctx, runlevel.UserOK); err != nil {
		log.Fatalf("edtrt-demo: bring-up: %v", err)
	}

	sched := cron.New()
	if _, err := sched.AddFunc("@every 30s", func() {
		if err := sub.CreateRoot(ctx); err != nil {
			logger.Error("edtrt-demo: periodic mainEdt resubmission failed", "error", err)
		}
	}); err != nil {
		log.Fatalf("edtrt-demo: schedule periodic resubmission: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	var httpServer *http.Server
	if cfg, ok := rt.ConfigProvider().GetConfig().(*edtrt.RuntimeConfig); ok && cfg.IntrospectAddr != "" {
		httpServer = &http.Server{Addr: cfg.IntrospectAddr, Handler: introspectRouter(rt, sub)}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("edtrt-demo: introspection server exited", "error", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if err := rt.Down(shutdownCtx, runlevel.ConfigParse); err != nil {
		logger.Error("edtrt-demo: tear-down failed", "error", err)
	}
}

// introspectRouter is the debug HTTP surface: current runlevel, live
// handle counts by kind, and a plain liveness probe.
func introspectRouter(rt edtrt.Runtime, sub *compute.Subsystem) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/runlevel", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]string{"current": rt.Current().String()})
	})

	r.Get("/handles", func(w http.ResponseWriter, req *http.Request) {
		counts := sub.Registry.Count()
		out := make(map[string]int, len(counts))
		for kind, n := range counts {
			out[string(kind)] = n
		}
		writeJSON(w, out)
	})

	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
