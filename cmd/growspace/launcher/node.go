package launcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	"github.com/ethereum/go-ethereum/rpc"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-growspace/api"
)

const rpcPath = "/rpc"

// serveAction runs the node until it is interrupted.
func serveAction(ctx *cli.Context) error {
	if args := ctx.Args(); len(args) > 0 {
		return fmt.Errorf("invalid command: %q", args[0])
	}
	e, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Node.Metrics.Enabled {
		if !metrics.Enabled {
			log.Warn("Metrics were enabled by config only, pass --metrics to collect them")
		}
		exp.Setup(net.JoinHostPort(e.cfg.Node.Metrics.Addr, strconv.Itoa(e.cfg.Node.Metrics.Port)))
	}

	var srv *http.Server
	if e.cfg.Node.HTTP.Enabled {
		srv, err = e.startHTTP()
		if err != nil {
			e.reporter.Error("Failed to start HTTP server", err)
			return err
		}
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	<-sigc
	log.Info("Got interrupt, shutting down...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server shutdown failed", "err", err)
		}
	}
	return nil
}

// newHTTPHandler mounts the JSON-RPC server under rpcPath next to the REST
// endpoints.
func (e *engine) newHTTPHandler() (http.Handler, *rpc.Server, error) {
	payer, err := e.cfg.PayerIdentity()
	if err != nil {
		return nil, nil, err
	}
	rpcSrv := rpc.NewServer()
	for _, name := range e.cfg.Node.HTTP.APIs {
		switch name {
		case api.Namespace:
			if err := rpcSrv.RegisterName(api.Namespace, api.NewPublicLedgerAPI(e.ledger)); err != nil {
				return nil, nil, err
			}
		default:
			log.Warn("Unknown API requested", "api", name)
		}
	}
	router := api.NewService(e.ledger, payer).Router()
	router.Handle(rpcPath, rpcSrv)
	return router, rpcSrv, nil
}

func (e *engine) startHTTP() (*http.Server, error) {
	handler, rpcSrv, err := e.newHTTPHandler()
	if err != nil {
		return nil, err
	}
	timeout, err := e.cfg.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(e.cfg.Node.HTTP.Addr, strconv.Itoa(e.cfg.Node.HTTP.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	srv.RegisterOnShutdown(rpcSrv.Stop)
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			e.reporter.Error("HTTP server failed", err, "addr", addr)
			log.Error("HTTP server failed", "err", err)
		}
	}()
	log.Info("HTTP server started", "url", "http://"+listener.Addr().String(), "rpc", rpcPath)
	return srv, nil
}
