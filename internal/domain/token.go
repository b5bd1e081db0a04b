package domain

// TokenGenerator produces opaque confirmation tokens. Implementations must
// draw from a cryptographically adequate random source; tokens are injected
// rather than read from process-global state so tests can substitute a
// deterministic source.
type TokenGenerator interface {
	Generate() (string, error)
}
