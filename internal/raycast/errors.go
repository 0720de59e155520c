package raycast

import (
	"errors"
	"fmt"

	"github.com/annel0/raycast/internal/vec"
)

var (
	// ErrInvalidArgument - параметры броска отклонены до начала обхода
	ErrInvalidArgument = errors.New("raycast: invalid argument")
	// ErrQueryFailure - коллаборатор не смог ответить на запрос, бросок прерван
	ErrQueryFailure = errors.New("raycast: query failure")
)

// QuerySource указывает, какой коллаборатор вернул ошибку
type QuerySource string

const (
	SourceVoxel     QuerySource = "voxel"
	SourceProximity QuerySource = "proximity"
	SourceBounds    QuerySource = "bounds"
)

// QueryError оборачивает ошибку коллаборатора
type QueryError struct {
	Source   QuerySource
	Step     int
	Position vec.Vec3Float
	EntityID uint64
	Err      error
}

func (e *QueryError) Error() string {
	switch e.Source {
	case SourceBounds:
		return fmt.Sprintf("%v: %s entity=%d: %v", ErrQueryFailure, e.Source, e.EntityID, e.Err)
	case SourceVoxel:
		return fmt.Sprintf("%v: %s step=%d at %v: %v", ErrQueryFailure, e.Source, e.Step, e.Position, e.Err)
	default:
		return fmt.Sprintf("%v: %s: %v", ErrQueryFailure, e.Source, e.Err)
	}
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is позволяет проверять errors.Is(err, ErrQueryFailure)
func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailure
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
