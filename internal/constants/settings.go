package constants

const (
	// Setting keys
	SettingTimezone      = "timezone"
	SettingBusyThreshold = "busy_threshold"
	SettingSlowThreshold = "slow_threshold"
	SettingTrendDays     = "trend_days"

	// Default Settings Values
	DefaultTimezone      = "Local" // Use system local timezone by default
	DefaultBusyThreshold = 0.75
	DefaultSlowThreshold = 0.40
	DefaultTrendDays     = 90
)
