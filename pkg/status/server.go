// Package status serves the state of a running sequencer over HTTP on a unix
// socket. It only reads: nothing here touches a box.
package status

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ampac/iceseq/pkg/events"
	"github.com/ampac/iceseq/pkg/sequencer"
	"github.com/ampac/iceseq/pkg/types"
	"github.com/ampac/iceseq/pkg/version"
)

// Source provides the snapshot to serve. *sequencer.Sequencer satisfies it.
type Source interface {
	Snapshot() sequencer.Snapshot
}

// Server is the status HTTP server.
type Server struct {
	src    Source
	hub    *events.Hub
	router *gin.Engine

	srv    *http.Server
	socket string
}

// NewServer returns a server for src. hub may be nil, in which case /events
// answers 404.
func NewServer(src Source, hub *events.Hub) *Server {
	s := &Server{
		src: src,
		hub: hub,
	}
	s.router = s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/status", s.getStatus)
	router.GET("/window", s.getWindow)
	router.GET(eventsPath, s.streamEvents)
	router.GET("/version", getVersion)

	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on socketPath and serves in the background. A stale socket
// file is removed first; any other file at that path is left alone and
// Start fails.
func (s *Server) Start(socketPath string, allowNonRoot bool) error {
	if err := removeStaleSocket(socketPath); err != nil {
		return err
	}

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", socketPath)
	}

	if allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", socketPath)
		if err := os.Chmod(socketPath, 0777); err != nil {
			_ = l.Close()
			return pkgerrors.Wrapf(err, "failed to change permissions of %s", socketPath)
		}
	}

	s.socket = socketPath
	s.srv = &http.Server{Handler: s.router}

	go func() {
		logrus.Infof("status server listening on %s", l.Addr().String())
		if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("status server stopped: %v", err)
		}
	}()

	return nil
}

func removeStaleSocket(socketPath string) error {
	fi, err := os.Lstat(socketPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to stat %s", socketPath)
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return pkgerrors.Errorf("%s exists and is not a socket, refusing to replace it", socketPath)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrapf(err, "failed to remove stale socket %s", socketPath)
	}
	return nil
}

// Stop ends open event streams, shuts the server down and removes the socket.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	logrus.Info("shutting down status server")
	if s.hub != nil {
		s.hub.Close()
	}
	err := s.srv.Shutdown(ctx)
	if rerr := os.Remove(s.socket); rerr != nil && !os.IsNotExist(rerr) {
		logrus.Warnf("failed to remove socket %s: %v", s.socket, rerr)
	}
	s.srv = nil

	return err
}

func (s *Server) getStatus(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.src.Snapshot())
}

func (s *Server) getWindow(c *gin.Context) {
	snap := s.src.Snapshot()
	c.IndentedJSON(http.StatusOK, types.WindowStatus{
		Cycle:     snap.Cycle,
		Window:    snap.Window,
		Tolerance: snap.Tolerance,
		Stable:    snap.Stable,
	})
}

func (s *Server) streamEvents(c *gin.Context) {
	if s.hub == nil {
		c.IndentedJSON(http.StatusNotFound, "no event source")
		return
	}

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(e.Name, string(e.Data))
			return true
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
