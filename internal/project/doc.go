// Package project manages projects: units of work owned by one account.
//
// Standard callers see and change only their own projects. Elevated callers
// see every project, each with its owner's public info joined in. A lookup
// that finds nothing reports ErrProjectNotFound before any ownership check.
package project
