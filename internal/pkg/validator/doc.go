// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Usecases depend on the Validator interface so validation rules, including
// the device identifier format, can be shared and tested consistently.
// Concrete implementations (go-playground/validator v10) live in this package.
package validator
