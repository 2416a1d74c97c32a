package assembler

import "errors"

var (
	// ErrAlreadyAssembled is returned by a second call to Assemble
	ErrAlreadyAssembled = errors.New("operator already assembled")

	// ErrNonLinearFormula is returned for a formula that does not declare itself
	// linear. Probing only recovers the exact operator of a linear map.
	ErrNonLinearFormula = errors.New("formula is not linear")

	// ErrNonFinite is returned when a formula produces NaN or Inf
	ErrNonFinite = errors.New("formula produced a non-finite value")

	ErrConfiguration = errors.New("invalid assembler configuration")
)
