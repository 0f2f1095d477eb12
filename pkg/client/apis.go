package client

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/ampac/iceseq/pkg/events"
	"github.com/ampac/iceseq/pkg/sequencer"
	"github.com/ampac/iceseq/pkg/types"
)

func (c *Client) GetStatus(ctx context.Context) (*sequencer.Snapshot, error) {
	ret, err := c.Get(ctx, "/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get run status")
	}

	var snap sequencer.Snapshot
	if err := json.Unmarshal(ret, &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal run status")
	}
	return &snap, nil
}

func (c *Client) GetWindow(ctx context.Context) (*types.WindowStatus, error) {
	ret, err := c.Get(ctx, "/window")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get stabilization window")
	}

	var w types.WindowStatus
	if err := json.Unmarshal(ret, &w); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal stabilization window")
	}
	return &w, nil
}

func (c *Client) GetVersion(ctx context.Context) (string, error) {
	ret, err := c.Get(ctx, "/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var v string
	if err := json.Unmarshal(ret, &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}

// Events follows the event stream and calls fn for every event until the
// server ends the stream, ctx is done or fn returns an error.
func (c *Client) Events(ctx context.Context, fn func(events.Event) error) error {
	resp, err := c.open(ctx, "/events")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to follow events")
	}
	defer closeBody(resp)

	var e events.Event
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if e.Name != "" {
				if err := fn(e); err != nil {
					return err
				}
			}
			e = events.Event{}
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			e.Name = value
		case "data":
			e.Data = append(e.Data, value...)
		}
	}

	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return pkgerrors.Wrap(err, "event stream broken")
	}
	return ctx.Err()
}
