// Package report persists busy periods and summarises them.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/flowsim/busyperiod/period"
)

// Save writes periods as a JSON array of [start, end, links, flows] tuples.
func Save(w io.Writer, periods []period.BusyPeriod) error {
	if periods == nil {
		periods = []period.BusyPeriod{}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(periods); err != nil {
		return fmt.Errorf("encoding busy periods: %w", err)
	}
	return nil
}

// SaveFile writes periods to path, replacing any existing file.
func SaveFile(path string, periods []period.BusyPeriod) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()

	writer := bufio.NewWriter(file)
	if err := Save(writer, periods); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	logrus.Debugf("Successfully wrote %d busy periods to '%s'", len(periods), path)
	return nil
}

// Load reads periods written by Save.
func Load(r io.Reader) ([]period.BusyPeriod, error) {
	var periods []period.BusyPeriod
	if err := json.NewDecoder(r).Decode(&periods); err != nil {
		return nil, fmt.Errorf("decoding busy periods: %w", err)
	}
	return periods, nil
}

// LoadFile reads periods from path.
func LoadFile(path string) ([]period.BusyPeriod, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()
	return Load(bufio.NewReader(file))
}
