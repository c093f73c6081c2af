package main

import (
	"encoding/json"
	"math/big"
	"net/http"

	"zinc/pkg/zinc"
)

type checkRequest struct {
	Source string `json:"source"`
}

type checkResponse struct {
	OK   bool   `json:"ok"`
	Diag string `json:"diagnostic,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := zinc.Compile("sandbox.zn", []byte(req.Source)); err != nil {
		writeJSON(w, checkResponse{OK: false, Diag: zinc.RenderError(err)})
		return
	}
	writeJSON(w, checkResponse{OK: true})
}

type runRequest struct {
	Source  string   `json:"source"`
	Inputs  []string `json:"inputs"`
	Witness bool     `json:"witness"`
}

type runResponse struct {
	Outputs     []string `json:"outputs,omitempty"`
	StorageRoot string   `json:"storage_root,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	program, err := zinc.Compile("sandbox.zn", []byte(req.Source))
	if err != nil {
		writeJSON(w, runResponse{Error: zinc.RenderError(err)})
		return
	}

	inputs := make([]*big.Int, len(req.Inputs))
	for i, raw := range req.Inputs {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			http.Error(w, "invalid input value: "+raw, http.StatusBadRequest)
			return
		}
		inputs[i] = v
	}

	result, err := zinc.Run(program, zinc.RunOptions{
		Inputs:      inputs,
		WitnessMode: req.Witness,
		Storage: zinc.StorageConfig{
			Depth: s.cfg.Storage.TreeDepth,
		},
	})
	if err != nil {
		writeJSON(w, runResponse{Error: zinc.RenderError(err)})
		return
	}

	outputs := make([]string, len(result.OutputInts))
	for i, v := range result.OutputInts {
		outputs[i] = v.String()
	}
	writeJSON(w, runResponse{Outputs: outputs, StorageRoot: result.StorageRoot.String()})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
