package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/discovery"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/logger"
)

// api-gateway：边缘反向代理。
// 通过 Consul 发现 pass-service 的健康实例，轮询转发；
// Consul 不可用时退回 -backend 指定的固定地址。

var (
	listenAddr  = flag.String("listen", ":8080", "HTTP listen address")
	consulAddr  = flag.String("consul", "localhost", "Consul host")
	consulPort  = flag.Int("consul-port", 8500, "Consul port")
	backendName = flag.String("service", "pass-service", "backend service name in Consul")
	backendAddr = flag.String("backend", "localhost:8081", "fallback backend host:port")
	logLevel    = flag.String("log-level", "info", "log level")
)

func main() {
	flag.Parse()

	log, err := logger.NewLogger(*logLevel, "text", "stdout", "")
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	consulClient, err := discovery.NewConsulClient(*consulAddr, *consulPort)
	if err != nil {
		log.Warnf("failed to connect to Consul, using fixed backend %s: %v", *backendAddr, err)
		consulClient = nil
	}

	var rr uint64
	pickBackend := func() string {
		if consulClient != nil {
			addrs, err := discovery.HealthyInstances(consulClient, *backendName)
			if err == nil && len(addrs) > 0 {
				n := atomic.AddUint64(&rr, 1)
				return addrs[n%uint64(len(addrs))]
			}
			if err != nil {
				log.Warnf("consul discovery failed, falling back: %v", err)
			}
		}
		return *backendAddr
	}

	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			target := &url.URL{Scheme: "http", Host: pickBackend()}
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Errorf("proxy error for %s %s: %v", r.Method, r.URL.Path, err)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"kind":"storage_failure","message":"upstream unavailable"}}`))
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/api/", proxy)

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Infof("api-gateway listening on %s", *listenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("api-gateway exited with error: %v", err)
	}
}
