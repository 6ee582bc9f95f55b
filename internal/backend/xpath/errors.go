package xpath

import (
	stderrors "errors"

	"github.com/standardbeagle/treesearch/internal/errors"
)

var errNotOpen = stderrors.New("not an open corpus of this engine")

func withLocation(err error, file string, sentNo int) error {
	var pe *errors.ParseError
	if stderrors.As(err, &pe) {
		return pe.WithLocation(file, sentNo)
	}
	return err
}
