// Package client talks to the status server of a running iceseq.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client is a struct for communicating with the status server
type Client struct {
	socketPath string
	httpClient *http.Client
}

// NewClient is a constructor for creating a new Client
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					conn, err := d.DialContext(ctx, "unix", socketPath)
					if err != nil {
						err = dialError(err)
						if !errors.Is(err, ErrRunNotActive) && !errors.Is(err, ErrPermissionDenied) {
							logrus.Errorf("failed to connect to unix socket: %v", err)
						}
						return nil, err
					}
					return conn, nil
				},
			},
		},
	}
}

// SocketPath returns the socket the client connects to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// open issues a GET and returns the response if the status is 2xx.
func (c *Client) open(ctx context.Context, path string) (*http.Response, error) {
	logrus.WithFields(logrus.Fields{
		"path": path,
		"unix": c.socketPath,
	}).Debug("sending request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix"+path, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to send request")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer closeBody(resp)
		b, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return nil, pkgerrors.Wrapf(ErrNotFound, "GET %s", path)
		}
		return nil, fmt.Errorf("got %d: %s", resp.StatusCode, string(b))
	}

	return resp, nil
}

// Get sends a GET request to the status server and returns the body
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read response body")
	}
	return b, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logrus.Errorf("failed to close response body: %v", err)
	}
}
