package model

import (
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zorros"
	"io"
)

/*
ModelStash keeps the last memorized iterations in temporary files
*/
type ModelStash struct {
	pattern   string
	files     []iokit.TemporaryFile
	iteration []int
}

func NewStash(n int, pattern string) *ModelStash {
	s := &ModelStash{
		pattern:   pattern,
		files:     make([]iokit.TemporaryFile, n),
		iteration: make([]int, n),
	}
	for i := range s.iteration {
		s.iteration[i] = -1
	}
	return s
}

type stashed struct{ f iokit.TemporaryFile }
type stashWhole struct{ iokit.TemporaryFile }

func (w stashWhole) Commit() error { return nil }
func (w stashWhole) End()          {}

func (s stashed) Create() (iokit.Whole, error) {
	if err := s.f.Truncate(); err != nil {
		return nil, zorros.Trace(err)
	}
	return stashWhole{s.f}, nil
}

/*
Output returns output to memorize the iteration
*/
func (s *ModelStash) Output(iteration int) (iokit.Output, error) {
	j := iteration % len(s.files)
	if s.files[j] == nil {
		f, err := iokit.Tempfile(s.pattern)
		if err != nil {
			return nil, zorros.Trace(err)
		}
		s.files[j] = f
	}
	s.iteration[j] = iteration
	return stashed{s.files[j]}, nil
}

/*
Reader returns memorized iteration if it's still in the stash
*/
func (s *ModelStash) Reader(iteration int) (io.Reader, error) {
	j := iteration % len(s.files)
	if s.files[j] == nil || s.iteration[j] != iteration {
		return nil, zorros.Errorf("iteration %d is not stashed", iteration)
	}
	if err := s.files[j].Reset(); err != nil {
		return nil, zorros.Trace(err)
	}
	return s.files[j], nil
}

func (s *ModelStash) Close() error {
	for i, f := range s.files {
		if f != nil {
			_ = f.Close()
			s.files[i] = nil
		}
	}
	return nil
}
