package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/relloyd/starpipe/logger"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		err := fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
		return nil, err
	}
	return json.Marshal(retval)
}

func (w *WebServerResponse) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "ok":
		*w = Okay
	case "error":
		*w = Error
	default:
		return fmt.Errorf("unexpected status %q", s)
	}
	return nil
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseRunList struct {
	Status WebServerResponse `json:"status"`
	Runs   []RunInfo         `json:"runs"`
}

type ResponseRun struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message,omitempty"`
	RunID   string            `json:"runId,omitempty"`
	Run     *RunInfo          `json:"run,omitempty"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		select {
		case chanStop <- "stop":
			log.Info("Stop signal sent")
		default: // already stopping.
		}
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

// GetHandlerRunLaunch starts the stage named in the URL. The body may hold a LoadRequest for the load stage.
func GetHandlerRunLaunch(log logger.Logger, runs *RunRegistry) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		stage := mux.Vars(r)["stage"]
		req := LoadRequest{}
		b, err := io.ReadAll(r.Body)
		if err != nil {
			logAndRespond(log, err, w, http.StatusBadRequest, ResponseRun{Status: Error, Message: fmt.Sprintf("error reading request: %v", err)})
			return
		}
		if len(b) > 0 {
			if err := json.Unmarshal(b, &req); err != nil {
				logAndRespond(log, err, w, http.StatusBadRequest, ResponseRun{Status: Error, Message: fmt.Sprintf("error unmarshalling JSON: %v", err)})
				return
			}
		}
		runID, err := runs.Launch(stage, req)
		if err == ErrRunInProgress {
			logAndRespond(log, err, w, http.StatusConflict, ResponseRun{Status: Error, Message: err.Error()})
			return
		} else if err != nil {
			logAndRespond(log, err, w, http.StatusBadRequest, ResponseRun{Status: Error, Message: err.Error()})
			return
		}
		w.WriteHeader(http.StatusAccepted)
		respond(log, w, ResponseRun{Status: Okay, Message: stage + " launched", RunID: runID})
	}
}

func GetHandlerRunList(log logger.Logger, runs *RunRegistry) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseRunList{Status: Okay, Runs: runs.List()})
	}
}

func GetHandlerRunStatus(log logger.Logger, runs *RunRegistry) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		info, ok := runs.Get(id)
		if !ok {
			log.Info("HTTP request for status of run ", id, " that doesn't exist.")
			w.WriteHeader(http.StatusNotFound)
			respond(log, w, ResponseRun{Status: Error, Message: fmt.Sprintf("run %v does not exist", id), RunID: id})
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseRun{Status: Okay, RunID: id, Run: &info})
	}
}

func GetHandlerRunStop(log logger.Logger, runs *RunRegistry) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		if !runs.Stop(id) {
			log.Info("HTTP request to stop run ", id, " that doesn't exist or has finished.")
			w.WriteHeader(http.StatusBadRequest)
			respond(log, w, ResponseRun{Status: Error, Message: "run does not exist or has already ended", RunID: id})
			return
		}
		log.Info("Stopping run ", id)
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseRun{Status: Okay, Message: "stopping", RunID: id})
	}
}

// logAndRespond will log the error, write status and r to w.
func logAndRespond(log logger.Logger, err error, w http.ResponseWriter, status int, r interface{}) {
	log.Error(err)
	w.WriteHeader(status)
	respond(log, w, r)
}

// respond will marshal i to a string and write it to w.
func respond(log logger.Logger, w http.ResponseWriter, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Error(err)
		return
	}
	if _, err = fmt.Fprint(w, string(j)); err != nil {
		log.Error(err)
	}
}
