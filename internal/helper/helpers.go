package helper

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/arkvest/arkvest/internal/errHandler"

	"golang.org/x/exp/constraints"
)

type HelperRepository struct {
	baseUrl    *string
	WG         *sync.WaitGroup
	errHandler *errHandler.ErrorHandler
}

func New(baseUrl *string, wg *sync.WaitGroup, errHandler *errHandler.ErrorHandler) *HelperRepository {
	return &HelperRepository{
		baseUrl:    baseUrl,
		WG:         wg,
		errHandler: errHandler,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL": h.baseUrl,
	}

	return data
}

// BackgroundTask runs fn in a goroutine, recovering panics and reporting
// failures so a broken side effect never takes a request down with it.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil && h.errHandler != nil {
				h.errHandler.ReportServerError(nil, fmt.Errorf("%s", err))
			}
		}()

		err := fn()
		if err != nil && h.errHandler != nil {
			h.errHandler.ReportServerError(r, err)
		}
	}()
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
