// Package api exposes the poll results over a read-only JSON API.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/moca-monitor/internal/config"
	"github.com/brocaar/moca-monitor/internal/moca"
	"github.com/brocaar/moca-monitor/internal/monitor"
	"github.com/brocaar/moca-monitor/internal/storage"
)

// defaultWindow is the history window used when the request does not carry
// a window parameter.
const defaultWindow = 24 * time.Hour

// Setup starts the JSON API server.
func Setup(c config.Config) error {
	if c.API.Bind == "" {
		return nil
	}

	log.WithFields(log.Fields{
		"bind": c.API.Bind,
	}).Info("api: starting api server")

	server := http.Server{
		Addr:    c.API.Bind,
		Handler: newHandler(),
	}

	go func() {
		err := server.ListenAndServe()
		log.WithError(err).Error("api: api server error")
	}()

	return nil
}

func newHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/adapters", adaptersHandler)
	mux.HandleFunc("/api/adapters/", adapterHandler)
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

type adaptersResponse struct {
	Adapters []string `json:"adapters"`
}

type historyResponse struct {
	Adapter      string                       `json:"adapter"`
	FromNode     moca.NodeID                  `json:"from_node"`
	ToNode       moca.NodeID                  `json:"to_node"`
	Start        time.Time                    `json:"start"`
	End          time.Time                    `json:"end"`
	Measurements []storage.PhyRateMeasurement `json:"measurements"`
	Stats        storage.RateStats            `json:"stats"`
}

func adaptersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	adapters := monitor.Adapters()
	if adapters == nil {
		adapters = []string{}
	}

	jsonResponse(w, http.StatusOK, adaptersResponse{Adapters: adapters})
}

// adapterHandler routes /api/adapters/{name}/report and
// /api/adapters/{name}/history.
func adapterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/adapters/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	switch parts[1] {
	case "report":
		reportHandler(w, r, parts[0])
	case "history":
		historyHandler(w, r, parts[0])
	default:
		jsonError(w, http.StatusNotFound, "not found")
	}
}

// reportHandler returns the report of the last successful poll cycle. It
// prefers the in-memory report and falls back to the Redis snapshot, so that
// a report survives a restart of the daemon.
func reportHandler(w http.ResponseWriter, r *http.Request, adapterName string) {
	report, ok := monitor.GetReport(adapterName)
	if !ok {
		var err error
		report, err = storage.GetPhyRateReport(r.Context(), adapterName)
		if errors.Is(err, storage.ErrDoesNotExist) {
			jsonError(w, http.StatusNotFound, "report does not exist")
			return
		} else if err != nil {
			log.WithError(err).WithField("adapter", adapterName).Error("api: get report error")
			jsonError(w, http.StatusInternalServerError, "get report error")
			return
		}
	}

	jsonResponse(w, http.StatusOK, report)
}

// historyHandler returns the stored measurements for one link, together with
// summary statistics over the primary rate.
func historyHandler(w http.ResponseWriter, r *http.Request, adapterName string) {
	query := r.URL.Query()

	fromNode, err := parseNodeID(query.Get("from"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid from node")
		return
	}

	toNode, err := parseNodeID(query.Get("to"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid to node")
		return
	}

	window := defaultWindow
	if s := query.Get("window"); s != "" {
		window, err = time.ParseDuration(s)
		if err != nil || window <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid window")
			return
		}
	}

	end := time.Now().UTC()
	start := end.Add(-window)

	measurements, err := storage.GetPhyRateMeasurements(r.Context(), storage.DB(), adapterName, fromNode, toNode, start, end)
	if err != nil {
		log.WithError(err).WithField("adapter", adapterName).Error("api: get measurements error")
		jsonError(w, http.StatusInternalServerError, "get measurements error")
		return
	}

	rates := make([]float64, len(measurements))
	for i, m := range measurements {
		rates[i] = float64(m.RateMbps)
	}

	if measurements == nil {
		measurements = []storage.PhyRateMeasurement{}
	}

	jsonResponse(w, http.StatusOK, historyResponse{
		Adapter:      adapterName,
		FromNode:     fromNode,
		ToNode:       toNode,
		Start:        start,
		End:          end,
		Measurements: measurements,
		Stats:        storage.CalculateRateStats(rates),
	})
}

func parseNodeID(s string) (moca.NodeID, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	if v > 15 {
		return 0, errors.New("node ID out of range")
	}
	return moca.NodeID(v), nil
}

func jsonResponse(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("api: encode response error")
	}
}

func jsonError(w http.ResponseWriter, code int, msg string) {
	jsonResponse(w, code, errorResponse{Error: msg})
}
