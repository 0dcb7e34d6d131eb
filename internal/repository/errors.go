package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"eshop/internal/entity"
)

// MySQL server error numbers the repositories translate.
const (
	errDupEntry             = 1062
	errNoReferencedRow      = 1452
	errCheckConstraintVioln = 3819
)

// translateError maps driver errors onto the entity error taxonomy. Errors it
// does not recognize are returned unchanged.
func translateError(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case errDupEntry:
		return fmt.Errorf("%w: %s", entity.ErrConflict, myErr.Message)
	case errNoReferencedRow:
		return fmt.Errorf("%w: referenced row does not exist", entity.ErrNotFound)
	case errCheckConstraintVioln:
		return fmt.Errorf("%w: %s", entity.ErrInsufficientStock, myErr.Message)
	}
	return err
}
