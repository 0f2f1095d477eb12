package config

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ampac/iceseq/pkg/types"
)

// Row labels that mark the data rows of each table. Other rows, such as
// headers and comments, are skipped.
const (
	tempRowMarker    = "Temp"
	currentRowMarker = "Current"
	portRowMarker    = "COM-"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

type row struct {
	line   int
	fields []string
}

// readRows returns the rows of a CSV table whose first column contains
// marker.
func readRows(path, marker string) ([]row, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open table %s", path)
	}
	defer func(fp *os.File) {
		if err := fp.Close(); err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	br := bufio.NewReader(fp)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows []row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrapf(ErrInvalidConfig, "%s: %v", path, err)
		}
		if len(rec) == 0 || !strings.Contains(rec[0], marker) {
			continue
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, row{line: line, fields: rec})
	}

	return rows, nil
}

type rowParser struct {
	path string
	row  row
	err  error
}

func (p *rowParser) need(n int) bool {
	if p.err != nil {
		return false
	}
	if len(p.row.fields) < n {
		p.err = pkgerrors.Wrapf(ErrInvalidConfig, "%s:%d: expected %d columns, got %d", p.path, p.row.line, n, len(p.row.fields))
		return false
	}
	return true
}

func (p *rowParser) int(i int, name string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(p.row.fields[i]))
	if err != nil {
		p.err = pkgerrors.Wrapf(ErrInvalidConfig, "%s:%d: invalid %s %q", p.path, p.row.line, name, p.row.fields[i])
	}
	return v
}

func (p *rowParser) float(i int, name string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p.row.fields[i]), 64)
	if err != nil {
		p.err = pkgerrors.Wrapf(ErrInvalidConfig, "%s:%d: invalid %s %q", p.path, p.row.line, name, p.row.fields[i])
	}
	return v
}

// LoadTempLoops reads "Temp" rows: label, box, card, channel, setpoint, gain.
func LoadTempLoops(path string) ([]types.TempLoop, error) {
	rows, err := readRows(path, tempRowMarker)
	if err != nil {
		return nil, err
	}

	loops := make([]types.TempLoop, 0, len(rows))
	for _, r := range rows {
		p := &rowParser{path: path, row: r}
		if !p.need(6) {
			return nil, p.err
		}
		l := types.TempLoop{
			Box:      p.int(1, "box"),
			Card:     p.int(2, "card"),
			Channel:  p.int(3, "channel"),
			Setpoint: p.float(4, "setpoint"),
			Gain:     p.float(5, "gain"),
		}
		if p.err != nil {
			return nil, p.err
		}
		loops = append(loops, l)
	}

	return loops, nil
}

// LoadCurrentLoops reads "Current" rows: label, box, card, current, limit.
func LoadCurrentLoops(path string) ([]types.CurrentLoop, error) {
	rows, err := readRows(path, currentRowMarker)
	if err != nil {
		return nil, err
	}

	loops := make([]types.CurrentLoop, 0, len(rows))
	for _, r := range rows {
		p := &rowParser{path: path, row: r}
		if !p.need(5) {
			return nil, p.err
		}
		l := types.CurrentLoop{
			Box:     p.int(1, "box"),
			Card:    p.int(2, "card"),
			Current: p.float(3, "current"),
			Limit:   p.float(4, "current limit"),
		}
		if p.err != nil {
			return nil, p.err
		}
		if l.Current > l.Limit {
			return nil, pkgerrors.Wrapf(ErrInvalidConfig, "%s:%d: current %g mA exceeds limit %g mA", path, r.line, l.Current, l.Limit)
		}
		loops = append(loops, l)
	}

	return loops, nil
}

// LoadPorts reads "COM-" rows: label, box index, port. The result holds the
// port of box i at index i. A bare port number n means COMn.
func LoadPorts(path string) ([]string, error) {
	rows, err := readRows(path, portRowMarker)
	if err != nil {
		return nil, err
	}

	ports := make([]string, len(rows))
	for _, r := range rows {
		p := &rowParser{path: path, row: r}
		if !p.need(3) {
			return nil, p.err
		}
		box := p.int(1, "box index")
		if p.err != nil {
			return nil, p.err
		}
		if box < 0 || box >= len(rows) {
			return nil, pkgerrors.Wrapf(ErrInvalidConfig, "%s:%d: box index %d out of range for %d boxes", path, r.line, box, len(rows))
		}
		if ports[box] != "" {
			return nil, pkgerrors.Wrapf(ErrInvalidConfig, "%s:%d: box index %d listed twice", path, r.line, box)
		}
		ports[box] = normalizePort(r.fields[2])
		if ports[box] == "" {
			return nil, pkgerrors.Wrapf(ErrInvalidConfig, "%s:%d: empty port for box %d", path, r.line, box)
		}
	}

	return ports, nil
}

func normalizePort(s string) string {
	s = strings.TrimSpace(s)
	if _, err := strconv.Atoi(s); err == nil {
		return "COM" + s
	}
	return s
}

// LoadPlan reads the three set-value tables named by the station file.
func (f *File) LoadPlan() (*types.Plan, error) {
	ports, err := LoadPorts(f.Resolve(f.Tables.Ports))
	if err != nil {
		return nil, err
	}
	temps, err := LoadTempLoops(f.Resolve(f.Tables.Temperature))
	if err != nil {
		return nil, err
	}
	currents, err := LoadCurrentLoops(f.Resolve(f.Tables.Current))
	if err != nil {
		return nil, err
	}

	plan := &types.Plan{
		Addresses:    ports,
		TempLoops:    temps,
		CurrentLoops: currents,
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"boxes":        len(plan.Addresses),
		"tempLoops":    len(plan.TempLoops),
		"currentLoops": len(plan.CurrentLoops),
	}).Info("set values loaded")

	return plan, nil
}
