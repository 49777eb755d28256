// Package clipboard copies rendered phelcfg output to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

var errUnsupported = errors.New("no clipboard utility available on this system")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard service backed by the platform clipboard utilities.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard. It fails when no clipboard utility is available.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return errUnsupported
	}
	return clipboard.WriteAll(text)
}

var _ Copier = (*Service)(nil)
