// Package daemon exposes the composition engine over a unix socket, as a
// programmatic front end for editors and other tooling. The wire protocol is
// JSON-RPC 2.0; request and response shapes live in pkg/protocol.
package daemon

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/stencilworks/stencil/internal/config"
	"github.com/stencilworks/stencil/internal/history"
	"github.com/stencilworks/stencil/internal/logger"
	"github.com/stencilworks/stencil/internal/registry"
)

var log = logger.ForComponent("daemon")

type Daemon struct {
	cfg      *config.Config
	reg      *registry.Registry
	store    *history.Store
	listener net.Listener

	conns        map[*jsonrpc2.Conn]bool
	connMu       sync.Mutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
	startTime    time.Time
}

func New(cfg *config.Config, reg *registry.Registry, store *history.Store) *Daemon {
	return &Daemon{
		cfg:       cfg,
		reg:       reg,
		store:     store,
		conns:     make(map[*jsonrpc2.Conn]bool),
		shutdown:  make(chan struct{}),
		startTime: time.Now(),
	}
}

// Start listens on the configured unix socket and serves connections until
// Shutdown. A stale socket file from a previous run is removed first.
func (d *Daemon) Start(ctx context.Context) error {
	if _, err := os.Stat(d.cfg.SocketPath); err == nil {
		os.Remove(d.cfg.SocketPath)
	}

	listener, err := net.Listen("unix", d.cfg.SocketPath)
	if err != nil {
		return err
	}
	d.listener = listener

	log.Info("daemon listening", "socket", d.cfg.SocketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return nil
			default:
				log.Warn("accept failed", "error", err)
				continue
			}
		}

		d.serveConn(ctx, conn)
	}
}

func (d *Daemon) serveConn(ctx context.Context, conn net.Conn) {
	stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{})
	rpcConn := jsonrpc2.NewConn(ctx, stream, &handler{daemon: d})

	d.connMu.Lock()
	d.conns[rpcConn] = true
	d.connMu.Unlock()

	go func() {
		<-rpcConn.DisconnectNotify()
		d.connMu.Lock()
		delete(d.conns, rpcConn)
		d.connMu.Unlock()
	}()
}

func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)

		if d.listener != nil {
			d.listener.Close()
		}

		d.connMu.Lock()
		for conn := range d.conns {
			conn.Close()
		}
		d.connMu.Unlock()

		os.Remove(d.cfg.SocketPath)
		log.Info("daemon stopped")
	})
}
