package service

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/avelichko/ssi-sim/internal/errs"
)

// parseID validates an external identifier supplied by a client.
func parseID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", errs.ErrValidation, field)
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errs.ErrValidation, field)
	}
	return id, nil
}
