// Command zincd runs the sandbox execution server: a small HTTP facade
// that accepts a Zinc source file plus witness inputs over JSON and
// returns the VM's execution result, standing in for zandbox without
// any of its contract-deployment or chain-submission responsibilities.
package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"zinc/pkg/config"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	srv := NewServer(cfg)
	logrus.Infof("zincd listening on %s", cfg.Server.ListenAddr)
	if err := srv.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.Fatalf("server: %v", err)
	}
}
