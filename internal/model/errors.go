package model

import "errors"

var (
	// ErrExamNotFound is returned when no exam exists for an ID.
	ErrExamNotFound = errors.New("exam not found")
	// ErrResultNotFound is returned when no result exists for an ID.
	ErrResultNotFound = errors.New("result not found")
	// ErrInvalidExam wraps every validation failure of an exam definition.
	ErrInvalidExam = errors.New("invalid exam")
	// ErrExamInUse is returned when replacing the questions of an exam that
	// already has results.
	ErrExamInUse = errors.New("exam has results")
)
