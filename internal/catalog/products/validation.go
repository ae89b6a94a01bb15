package products

import (
	"fmt"
	"strings"

	"github.com/stockledger/stockledger/internal/shared"
)

const maxIdentifierLen = 40

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: product id is required", shared.ErrInvalidInput)
	}
	if len(p.ID) > maxIdentifierLen {
		return fmt.Errorf("%w: product id too long", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", shared.ErrInvalidInput)
	}
	return nil
}
