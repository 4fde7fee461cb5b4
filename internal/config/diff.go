package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; server address
// and history DSN changes require a restart and are deliberately absent.
type ConfigDiff struct {
	LogLevelChanged   bool
	NewLogLevel       LogLevel
	ComparisonChanged bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.ComparisonChanged = comparisonChanged(old.Comparison, new.Comparison)

	return d
}

// comparisonChanged reports whether any phonetic tuning differs between the
// two comparison sections.
func comparisonChanged(old, new ComparisonConfig) bool {
	if !intPtrEqual(old.MaxEditDistance, new.MaxEditDistance) {
		return true
	}
	if !floatPtrEqual(old.SimilarityThreshold, new.SimilarityThreshold) {
		return true
	}
	if len(old.ConfusionPairs) != len(new.ConfusionPairs) {
		return true
	}
	for i := range old.ConfusionPairs {
		if old.ConfusionPairs[i] != new.ConfusionPairs[i] {
			return true
		}
	}
	return false
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
