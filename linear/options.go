package linear

import (
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

// Solver selects the maximum-likelihood optimizer of MNLogit.
type Solver string

const (
	// SolverNewton is Newton-Raphson on the analytic Hessian.
	SolverNewton Solver = "newton"
	// SolverBFGS is quasi-Newton BFGS from gonum/optimize.
	SolverBFGS Solver = "bfgs"
)

const (
	defaultMaxIter = 35
	defaultTol     = 1e-8
)

// fitConfig holds the settings shared by OLS and MNLogit.
type fitConfig struct {
	solver  Solver
	maxIter int
	tol     float64
	logger  log.Logger
}

func newFitConfig(opts []Option) fitConfig {
	cfg := fitConfig{
		solver:  SolverNewton,
		maxIter: defaultMaxIter,
		tol:     defaultTol,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("linear")
	}
	return cfg
}

// Option is a function that configures a fitter
type Option func(*fitConfig)

// WithSolver sets the MNLogit optimizer
func WithSolver(s Solver) Option {
	return func(c *fitConfig) {
		c.solver = s
	}
}

// WithMaxIter sets the maximum number of optimizer iterations
func WithMaxIter(n int) Option {
	return func(c *fitConfig) {
		c.maxIter = n
	}
}

// WithTol sets the convergence tolerance. Newton stops when the largest
// absolute step is below tol; BFGS uses it as the gradient threshold.
func WithTol(tol float64) Option {
	return func(c *fitConfig) {
		c.tol = tol
	}
}

// WithLogger sets the logger used for fit diagnostics
func WithLogger(l log.Logger) Option {
	return func(c *fitConfig) {
		c.logger = l
	}
}

// ParseSolver converts a config string into a Solver.
func ParseSolver(s string) (Solver, error) {
	switch Solver(s) {
	case SolverNewton, "":
		return SolverNewton, nil
	case SolverBFGS:
		return SolverBFGS, nil
	}
	return "", errors.NewValidationError("solver", "must be newton or bfgs", s)
}
