// Package models defines the core domain models for splitledger.
//
// Amounts are carried everywhere as int64 minor units (cents for most
// currencies). Converting to and from decimal strings happens only at the
// API boundary (see the money package); the balance engine never touches
// floating point.
//
// Members are identified by a normalized key: the user ID for registered
// accounts, the lowercased email for unregistered placeholders. Two records
// referring to the same person through different shapes compare equal.
package models
