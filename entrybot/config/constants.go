package config

import "time"

// UI and Display Constants
const (
	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00
	NoticeColor  = 0xFFA500
	StatsColor   = 0xF1C40F

	// Visitor lists
	VisitorsPerPage   = 20
	ChartRows         = 15
	VenueCodeAttempts = 200

	VenueRegisterRetries = 5
)

// Timeouts
const (
	CommandExecutionTimeout = 10 * time.Second
	ExportTimeout           = 60 * time.Second
	RestTimeout             = 20 * time.Second

	// Cache settings
	RoleCacheExpiration   = 5 * time.Minute
	MemberCacheExpiration = 30 * time.Second
	CacheSize             = 1024
)

// Dashboard
const (
	DefaultTokenTTL      = time.Hour
	DefaultSweepInterval = time.Hour
	DefaultSessionTTL    = 180 * time.Second
)
