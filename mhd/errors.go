package mhd

import "errors"

var (
	ErrStateSize          = errors.New("state vector length is not three times the number of true dofs")
	ErrCurrentNotSet      = errors.New("current field not initialized, call SetInitialJ or SetJBdy first")
	ErrParametersNotSet   = errors.New("reduced system used before SetParameters")
	ErrInvalidStep        = errors.New("time step must be positive")
	ErrNewtonNotConverged = errors.New("implicit solve: newton solver did not converge")
	ErrStaleJacobian      = errors.New("preconditioner requested for a jacobian that is no longer current")
	ErrClosed             = errors.New("operator resources have been released")
)
