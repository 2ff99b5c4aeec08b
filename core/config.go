package core

import (
	log "github.com/sirupsen/logrus"
)

// Configuration defines a global resource layer configuration setting
type Configuration struct {
	Context ContextConfiguration
	Time    TimeConfiguration
}

// ContextConfiguration is used to configure a resource context
type ContextConfiguration struct {
	// GC selects the release strategy for resources that are
	// garbage collected before being released
	GC GCMode

	// Logger receives lifecycle events at debug level.
	// Leave nil to discard them
	Logger *log.Logger
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}
