// Package mocks provides hand-written test doubles shared across packages.
//
// Most mocks follow one pattern: optional function fields (GenerateFn,
// GetByIDFn, ...) override behaviour per test, and a small default
// implementation covers the common path. Mocks that record calls guard their
// state with a mutex so they can be used from concurrent code under test.
//
//	gen := &mocks.MockGenerator{
//	    Responses: map[generation.Kind]string{
//	        generation.KindQuiz: `{"questions":[...]}`,
//	    },
//	}
package mocks
