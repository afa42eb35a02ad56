package samplelog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sweeney/machine-sensor/internal/logic"
)

// CSV writes one data{id}.csv file per machine.
type CSV struct {
	dir string
}

// NewCSV truncates the log of every machine in ids and returns a logger
// appending to them.
func NewCSV(dir string, ids []int) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &PersistenceError{Op: "mkdir", Err: err}
	}
	c := &CSV{dir: dir}
	for _, id := range ids {
		f, err := os.Create(c.Path(id))
		if err != nil {
			return nil, &PersistenceError{MachineID: id, Op: "truncate", Err: err}
		}
		if err := f.Close(); err != nil {
			return nil, &PersistenceError{MachineID: id, Op: "truncate", Err: err}
		}
	}
	return c, nil
}

// Path returns the log file for machineID.
func (c *CSV) Path(machineID int) string {
	return filepath.Join(c.dir, fmt.Sprintf("data%d.csv", machineID))
}

// Append writes one line and fsyncs it. The file is not held open between
// calls.
func (c *CSV) Append(machineID int, elapsed float64, s logic.Sample) (err error) {
	f, err := os.OpenFile(c.Path(machineID), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return &PersistenceError{MachineID: machineID, Op: "open", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &PersistenceError{MachineID: machineID, Op: "close", Err: cerr}
		}
	}()

	if _, err := f.WriteString(FormatLine(elapsed, s)); err != nil {
		return &PersistenceError{MachineID: machineID, Op: "write", Err: err}
	}
	if err := f.Sync(); err != nil {
		return &PersistenceError{MachineID: machineID, Op: "sync", Err: err}
	}
	return nil
}

// Close is a no-op; no file is held open.
func (c *CSV) Close() error { return nil }
