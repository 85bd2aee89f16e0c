// Package models contains the GORM persistence models. Domain entities carry
// no ORM tags; each model converts to and from its aggregate with ToDomain
// and FromDomain, and repositories only ever hand models to GORM.
package models
