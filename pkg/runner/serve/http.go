// Package serve runs quickmsg's long-lived HTTP surfaces.
package serve

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const shutdownGrace = 5 * time.Second

// HTTP serves Handler on Addr until ctx is done.
type HTTP struct {
	Addr     string
	Handler  http.Handler
	CertFile string
	KeyFile  string
	// OnListening is called with the bound address, which matters when Addr
	// asks for port 0.
	OnListening func(net.Addr)
}

func (h HTTP) Do(ctx context.Context) error {
	if (h.CertFile == "") != (h.KeyFile == "") {
		return errors.New("both tls cert and key must be provided")
	}
	ln, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return err
	}
	if h.OnListening != nil {
		h.OnListening(ln.Addr())
	}

	srv := &http.Server{
		Handler:           h.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if h.CertFile != "" {
		err = srv.ServeTLS(ln, h.CertFile, h.KeyFile)
	} else {
		err = srv.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
