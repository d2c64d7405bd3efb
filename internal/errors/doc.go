// Package errors provides coded, actionable errors for ladderpulse.
//
// Every failure the engine, the loaders and the CLI report carries a short
// code (e.g. "N101") that maps to a category, a message and a longer
// explanation. Codes make errors matchable with errors.Is regardless of the
// detail attached to a particular occurrence:
//
//	err := errors.New("N101").WithDetail("GET /api/character/42: EOF")
//	stderrors.Is(err, errors.New("N101")) // true
//
// # Error Categories
//
//   - navigation: restoration and tab/modal coordination failures
//   - network: data loads that never reached or were refused by the API
//   - validation: malformed navigation state
//   - config: bad or missing ladderpulse.json
//   - cli: command line usage
//
// Format renders an error for the terminal:
//
//	ERROR N102: Authentication required
//
//	  The API rejected the request with 401 Unauthorized.
//
//	  Hint: Sign in again and retry the navigation.
package errors
