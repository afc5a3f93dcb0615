package traj

import (
	"errors"
	"fmt"
	"io"
)

// Walk opens the dump file at path, skips the first start frames and calls
// fn for every frame from start (inclusive) to end (exclusive). cfg is the
// position of the frame in the file. Walk stops at the first error.
func Walk(path string, start, end int, fn func(cfg int, f *Frame) error, opts ...Option) error {
	if start >= end {
		return errors.New("CfgStart is greater or equal than CfgEnd")
	}

	r, err := Open(path, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	err = r.Skip(start)
	if err != nil {
		return fmt.Errorf("Skip: %w", err)
	}

	for cfg := start; cfg < end; cfg++ {
		f, err := r.Next()
		if err == io.EOF {
			return fmt.Errorf("Next (step %d): %w", cfg, io.ErrUnexpectedEOF)
		}
		if err != nil {
			return fmt.Errorf("Next (step %d): %w", cfg, err)
		}

		err = fn(cfg, f)
		if err != nil {
			return fmt.Errorf("step %d: %w", cfg, err)
		}
	}
	return nil
}
