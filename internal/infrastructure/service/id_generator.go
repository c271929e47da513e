package service

import "github.com/google/uuid"

// UUIDGenerator issues random UUIDv4 identifiers for series and lessons.
type UUIDGenerator struct{}

// NewIDGenerator creates a UUIDGenerator.
func NewIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID implements recurrence.IDGenerator.
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}
