package apperror

import "errors"

var ErrInvalidOrder = errors.New("invalid order")
var ErrOrderNotFound = errors.New("order not found")
var ErrInvalidStatus = errors.New("invalid payment status")
var ErrTransitionConflict = errors.New("transition conflict, retry the operation")

var ErrInvalidOrdersQuery = errors.New("invalid orders query")
