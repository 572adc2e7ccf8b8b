// Package util provides small generic slice helpers shared by the result
// views and the config loader.
package util
