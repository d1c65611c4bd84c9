// Command relaysrv is the relay server process: it wires configuration,
// blob storage, the document store, both background indexers, the
// mutation dispatcher, the MCP tool surface, and the HTTP/WS router, then
// serves until signaled to stop.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lens-academy/relay/blob"
	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/cmn/nlog"
	"github.com/lens-academy/relay/crdtdoc"
	"github.com/lens-academy/relay/devtoken"
	"github.com/lens-academy/relay/dispatch"
	"github.com/lens-academy/relay/httpapi"
	"github.com/lens-academy/relay/linkidx"
	"github.com/lens-academy/relay/mcpsession"
	"github.com/lens-academy/relay/mcpsrv"
	"github.com/lens-academy/relay/resolver"
	"github.com/lens-academy/relay/searchidx"
	"github.com/lens-academy/relay/store"
	"github.com/lens-academy/relay/synctransport"
	"github.com/lens-academy/relay/webhook"
)

func main() {
	configPath := flag.String("config", "", "path to relay.yaml")
	flag.Parse()

	cfg, err := cmn.Load(*configPath)
	if err != nil {
		nlog.Errorln("config:", err.Error())
		os.Exit(1)
	}
	cmn.GCO.Put(cfg)
	crdtdoc.SetObserverPanicHook(func(r any) { nlog.Errorln("observer panic recovered:", r) })

	blobs, err := buildBlobStore(cfg)
	if err != nil {
		nlog.Errorln("blob store:", err.Error())
		os.Exit(1)
	}
	searchIndex, err := searchidx.Open(cfg.SearchIndexDir)
	if err != nil {
		nlog.Errorln("search index:", err.Error())
		os.Exit(1)
	}

	// docsStore is constructed with no observer yet: the dispatcher below
	// depends on the indexers, which depend on the store as a DocsView, so
	// the observer factory is wired in last via SetObserverFactory.
	docsStore := store.New(cfg, blobs, nil)
	res := resolver.New(cfg)
	sessions := mcpsession.New(time.Duration(cfg.SessionTTLSeconds) * time.Second)

	searchIdx := searchidx.New(cfg, docsStore, res, searchIndex)
	linkIdx := linkidx.New(cfg, docsStore, res, searchIdx)
	persist := store.NewPersistWorker(docsStore, blobs, cfg)
	wh := webhook.New(cfg)
	disp := dispatch.New(persist, linkIdx, searchIdx, wh)
	docsStore.SetObserverFactory(disp.ObserverFactory)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go linkIdx.Run()
	go searchIdx.Run()
	go persist.Run(ctx)
	if wh.Enabled() {
		wh.Run(ctx)
	}

	if err := searchIdx.Flush(); err != nil {
		nlog.Errorln("initial search flush:", err.Error())
	}
	res.Rebuild(docsStore)

	// Dev-only token signer (spec.md §1 leaves real issuance out of scope);
	// keyed off the relay's own uuid so every relay instance signs distinctly
	// without a dedicated secrets file.
	signer := devtoken.New(cfg.RelayUUID, time.Hour)
	mcp := mcpsrv.New(docsStore, res, sessions)
	hub := synctransport.NewHub(docsStore, signer)
	api := httpapi.New(docsStore, mcp, hub, signer, cfg.RelayUUID).WithAdmin(httpapi.AdminDeps{
		LinkIdx:   linkIdx,
		SearchIdx: searchIdx,
		Sessions:  sessions,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: api.Routes()}
	go func() {
		nlog.Infoln("listening on", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nlog.Errorln("http server:", err.Error())
		}
	}()

	waitForShutdown()

	nlog.Infoln("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	persist.CompactAll(shutdownCtx)
	persist.Stop()
	linkIdx.Stop()
	searchIdx.Stop()
	if wh.Enabled() {
		wh.Stop()
	}
}

func waitForShutdown() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}

func buildBlobStore(cfg *cmn.Config) (blob.Store, error) {
	if cfg.S3Bucket == "" {
		return blob.NewFSStore(cfg.BlobRoot)
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, err
	}
	cl := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
		}
	})
	return blob.NewS3Store(cl, cfg.S3Bucket, 15*time.Minute), nil
}
