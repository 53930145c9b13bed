package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/helper"
	"github.com/relloyd/starpipe/logger"
	"github.com/robfig/cron/v3"
)

type WebServerConfig struct {
	Scheme     string         `errorTxt:"scheme" mandatory:"no"`
	Addr       net.IP         `errorTxt:"address" mandatory:"no"`
	Port       int            `errorTxt:"port" mandatory:"yes"`
	Schedule   string         `errorTxt:"schedule" mandatory:"no"` // cron expression that launches a full run.
	NewRuntime RuntimeFactory // required.
}

// RunWebServer serves the run API until interrupted or asked to stop.
func RunWebServer(log logger.Logger, web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	if web.NewRuntime == nil {
		return errors.New("no runtime factory supplied to web server")
	}
	runs := NewRunRegistry(log, web.NewRuntime)
	sched, err := startSchedule(log, runs, web.Schedule)
	if err != nil {
		return err
	}
	srv, chanStopServer := runServer(log, web, runs)
	return waitForServer(log, srv, chanStopServer, sched, runs)
}

// startSchedule launches a full run on each tick of the cron expression schedule.
// It returns nil if schedule is empty.
func startSchedule(log logger.Logger, runs *RunRegistry, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := runs.Launch(constants.StageRun, LoadRequest{}); err != nil {
			log.Warn("scheduled run not launched: ", err)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invalid schedule %q", schedule)
	}
	c.Start()
	log.Info("scheduled runs at ", schedule)
	return c, nil
}

// runServer starts a web server and returns:
// 1) the server; and
// 2) a channel that can be used to stop the web server
func runServer(log logger.Logger, web *WebServerConfig, runs *RunRegistry) (*http.Server, chan string) {
	chanStopServer := make(chan string, 1)
	srv := &http.Server{ // Good practice to set timeouts to avoid Slowloris attacks.
		Addr:         fmt.Sprintf("%v:%v", web.Addr, web.Port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      newRouter(log, runs, chanStopServer),
	}
	// Run HTTP server non-blocking.
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				log.Error(err)
				chanStopServer <- "error"
			}
		}
	}()
	scheme := web.Scheme
	if scheme == "" {
		scheme = "http"
	}
	log.Info(fmt.Sprintf("Listening on %v://%v:%v", strings.ToLower(scheme), web.Addr, web.Port))
	return srv, chanStopServer
}

func newRouter(log logger.Logger, runs *RunRegistry, chanStopServer chan string) *mux.Router {
	r := mux.NewRouter()
	r.Path("/health").Methods(http.MethodGet).HandlerFunc(GetHandlerHealth(log))
	r.Path("/stop").Methods(http.MethodPost).HandlerFunc(GetHandlerStopServer(log, chanStopServer))
	r.Path("/runs").Methods(http.MethodGet).HandlerFunc(GetHandlerRunList(log, runs))
	r.Path("/runs/{stage}").Methods(http.MethodPost).HandlerFunc(GetHandlerRunLaunch(log, runs))
	r.Path("/runs/{runId}").Methods(http.MethodGet).HandlerFunc(GetHandlerRunStatus(log, runs))
	r.Path("/runs/{runId}/stop").Methods(http.MethodPost).HandlerFunc(GetHandlerRunStop(log, runs))
	return r
}

func waitForServer(log logger.Logger, srv *http.Server, chanStopServer chan string, sched *cron.Cron, runs *RunRegistry) error {
	// Accept graceful shutdowns when quit via SIGINT (Ctrl+C) or SIGTERM.
	chanOS := make(chan os.Signal, 1)
	signal.Notify(chanOS, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(chanOS)
	select {
	case <-chanStopServer:
	case <-chanOS:
	}
	log.Info("Shutting down web server...")
	if sched != nil {
		<-sched.Stop().Done() // wait for a scheduled launch in progress.
	}
	runs.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	return srv.Shutdown(ctx) // waits for open connections until the deadline.
}
