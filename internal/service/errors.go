package service

import (
	"database/sql"
	"errors"

	customError "github.com/segyhp/invoice-followups/pkg/errors"
)

// lookupError turns a repository lookup failure into a business error
func lookupError(err error, notFound func() *customError.BusinessError) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound()
	}
	return customError.WrapDatabaseError(err)
}
