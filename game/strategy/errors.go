package strategy

import "errors"

var (
	ErrUnknownKind = errors.New("unknown strategy")
	ErrNoPath      = errors.New("no path to the finish line")
	ErrInvalidPathFile = errors.New("path file lines must be vectors such as (X:5, Y:-15)")
	ErrInvalidMoveList = errors.New("invalid move list")
)
