package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// File is a Station backed by a YAML file.
type File struct {
	*Station
	filepath string
}

// NewFile loads the station file at configPath. A missing or empty file
// yields the defaults.
func NewFile(configPath string) (*File, error) {
	f := &File{
		Station:  Default(),
		filepath: configPath,
	}
	if err := f.Load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the path of the station file.
func (f *File) Path() string {
	return f.filepath
}

// Resolve returns p relative to the directory of the station file.
func (f *File) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(f.filepath), p)
}

func (f *File) Load() error {
	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", f.filepath).Debug("station file not found, using defaults")
			f.Station = Default()
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	st := Default()
	if strings.TrimSpace(string(b)) == "" {
		f.Station = st
		return nil
	}

	if err := yaml.Unmarshal(b, st); err != nil {
		return pkgerrors.Wrapf(ErrInvalidConfig, "failed to unmarshal station file %s: %v", f.filepath, err)
	}
	f.Station = st

	return nil
}

func (f *File) Save() error {
	b, err := yaml.Marshal(f.Station)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode station")
	}

	if err := os.WriteFile(f.filepath, b, 0o644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write file %s", f.filepath)
	}
	return nil
}
