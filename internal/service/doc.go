// Package service contains the application's use cases, orchestrating
// domain objects and the store layer. Its central piece is the session lock
// service, which serializes agent turns per chat session using lease records
// mutated only through atomic transactions.
package service
