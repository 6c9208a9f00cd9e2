package gateway

import "net/http"

// NewMux wires the run API:
//
//	POST /v1/runs                        start a run
//	GET  /v1/runs                        list runs
//	GET  /v1/runs/{id}                   one run record
//	GET  /v1/runs/{id}/artifacts         artifact names
//	GET  /v1/runs/{id}/artifacts/{name}  artifact content
//	GET  /v1/runs/{id}/watch             websocket event feed
func NewMux(svc *Service) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/runs", svc.handleRuns)
	mux.HandleFunc("/v1/runs/", svc.handleRun)

	return CORS(mux)
}
