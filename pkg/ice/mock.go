package ice

import (
	"fmt"
	"strings"
)

var _ Port = (*MockPort)(nil)

// MockPort is an in-memory Port. Every written line is passed to Respond and
// the answer is queued for the next reads.
type MockPort struct {
	Respond func(line string) string

	writes []string
	out    []byte
	reads  int
	closes int
	ops    []string
}

// NewMockPort returns a MockPort answering with respond. respond may be nil.
func NewMockPort(respond func(line string) string) *MockPort {
	return &MockPort{Respond: respond}
}

func (p *MockPort) Write(b []byte) (int, error) {
	raw := string(b)
	p.writes = append(p.writes, raw)
	p.ops = append(p.ops, "write")

	if p.Respond != nil {
		p.out = append(p.out, p.Respond(strings.TrimSuffix(raw, lineTerminator))...)
	}
	return len(b), nil
}

func (p *MockPort) Read(b []byte) (int, error) {
	p.reads++
	p.ops = append(p.ops, "read")

	if len(p.out) == 0 {
		return 0, nil
	}
	n := copy(b, p.out)
	p.out = p.out[n:]
	return n, nil
}

func (p *MockPort) Close() error {
	p.closes++
	p.ops = append(p.ops, "close")
	return nil
}

// Queue appends raw bytes to what the next reads return.
func (p *MockPort) Queue(b []byte) {
	p.out = append(p.out, b...)
}

// RawWrites returns every write as it reached the port.
func (p *MockPort) RawWrites() []string {
	return append([]string(nil), p.writes...)
}

// Lines returns every written line without its terminator.
func (p *MockPort) Lines() []string {
	lines := make([]string, 0, len(p.writes))
	for _, w := range p.writes {
		lines = append(lines, strings.TrimSuffix(w, lineTerminator))
	}
	return lines
}

// Reads returns the number of Read calls.
func (p *MockPort) Reads() int {
	return p.reads
}

// Closes returns the number of Close calls.
func (p *MockPort) Closes() int {
	return p.closes
}

// Ops returns the sequence of port operations ("write", "read", "close").
func (p *MockPort) Ops() []string {
	return append([]string(nil), p.ops...)
}

// MockOpener serves ports from a fixed address map.
func MockOpener(ports map[string]*MockPort) Opener {
	return func(address string) (Port, error) {
		p, ok := ports[address]
		if !ok {
			return nil, fmt.Errorf("no such port: %s", address)
		}
		return p, nil
	}
}
