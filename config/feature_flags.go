package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages runtime toggles with optional percentage rollout.
// A student lands in a rollout bucket by a hash of their ID, so the
// decision is stable across restarts.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	RolloutPercent int
}

// Predefined feature flag names.
const (
	FeatureNotifyStudentsAdded = "notify.students_added" // "You were added to a lesson"
	FeatureNotifyDedupe        = "notify.dedupe"         // Suppress repeated notices
	FeatureCacheStats          = "cache.stats"           // Redis cache for stats views
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureNotifyStudentsAdded] = &Feature{
		Name:           FeatureNotifyStudentsAdded,
		Description:    "Notify students added to an existing lesson",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyDedupe] = &Feature{
		Name:           FeatureNotifyDedupe,
		Description:    "Deliver at most one notice per lesson and student",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCacheStats] = &Feature{
		Name:           FeatureCacheStats,
		Description:    "Cache attendance, debt and progress views",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_NOTIFY_STUDENTS_ADDED=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// "notify.students_added" -> "FEATURE_NOTIFY_STUDENTS_ADDED"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether a feature is switched on at all.
// Unknown features are off.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// IsEnabledFor reports whether a feature is on for the given student,
// honouring the rollout percentage.
func (ff *FeatureFlags) IsEnabledFor(featureName, studentID string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}
	if feature.RolloutPercent >= 100 {
		return true
	}
	return isInRollout(studentID, featureName, feature.RolloutPercent)
}

func isInRollout(studentID, featureName string, percent int) bool {
	if percent <= 0 {
		return false
	}
	h := fnv.New32a()
	h.Write([]byte(featureName + ":" + studentID))
	return int(h.Sum32()%100) < percent
}

// SetRolloutPercent changes the rollout of a known feature.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("rollout percent must be 0-100, got %d", percent)
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return fmt.Errorf("unknown feature: %s", featureName)
	}
	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature turns a feature fully on.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature turns a feature off.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}
