package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	TxKey   ContextKey = "tx"
	PoolKey ContextKey = "pool"
)

// Validate is the shared validator instance. DTOs and merged apply inputs
// are validated through it so custom rules are registered once.
var Validate = validator.New(validator.WithRequiredStructEnabled())
