package config

import "fmt"

// Environment selects the grants table and the settings bundle.
type Environment string

const (
	Test        Environment = "test"
	Development Environment = "development"
	Production  Environment = "production"
)

// Environments lists every recognized environment.
var Environments = []Environment{Test, Development, Production}

// Valid reports whether e is one of the recognized environments.
func (e Environment) Valid() bool {
	switch e {
	case Test, Development, Production:
		return true
	}
	return false
}

// ParseEnvironment validates s as an Environment.
func ParseEnvironment(s string) (Environment, error) {
	e := Environment(s)
	if !e.Valid() {
		return "", fmt.Errorf("invalid environment %q", s)
	}
	return e, nil
}
