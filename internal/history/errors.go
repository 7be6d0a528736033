package history

import (
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
)

func historyError(err error, message string) error {
	return ferrors.WrapError(err, ferrors.CategoryHistory, message).Build()
}
