package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

// translate maps a gorm error onto the domain taxonomy. kind names the
// record involved and op the failed operation.
func translate(op, kind string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return common.NotFound(kind)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, errors.Join(common.ErrConflict, err))
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: referenced record missing: %w", op, common.ErrNotFound)
	default:
		return common.Unavailable(op, err)
	}
}
