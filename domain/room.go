// Package domain contains core concepts of the notification hub.
// This file defines room identifiers and membership invariants.
// No runtime, network, or UI logic should be added here.
package domain

// RoomID identifies a logical broadcast group. One room exists per
// partnership conversation; membership is held only in memory and is
// rebuilt from zero every time a client reconnects.
type RoomID string
