package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv reads environment variables that are not represented by
// dedicated CLI flags in the serve command.
func (c *Config) ApplyEnv() error {
	if c == nil {
		return nil
	}

	var err error
	if err = applyBoolEnv("MEMORY_BRIDGE_DB_MIGRATE_AT_START", &c.DatastoreMigrateAtStart); err != nil {
		return err
	}
	if err = applyDurationEnv("MEMORY_BRIDGE_QUERY_CACHE_TTL", &c.QueryCacheTTL); err != nil {
		return err
	}
	if err = applyIntEnv("MEMORY_BRIDGE_MAX_CONTENT_LENGTH", &c.MaxContentLength); err != nil {
		return err
	}
	if err = applyIntEnv("MEMORY_BRIDGE_MAX_KEYWORDS", &c.MaxKeywords); err != nil {
		return err
	}
	if err = applyIntEnv("MEMORY_BRIDGE_DEFAULT_QUERY_LIMIT", &c.DefaultQueryLimit); err != nil {
		return err
	}
	if err = applyIntEnv("MEMORY_BRIDGE_DEFAULT_QUERY_DAYS", &c.DefaultQueryDays); err != nil {
		return err
	}
	if err = applyIntEnv("MEMORY_BRIDGE_DEFAULT_TIMELINE_DAYS", &c.DefaultTimelineDays); err != nil {
		return err
	}
	if err = applyDurationEnv("MEMORY_BRIDGE_STORE_TIMEOUT", &c.StoreTimeout); err != nil {
		return err
	}
	if err = applyDurationEnv("MEMORY_BRIDGE_CACHE_TIMEOUT", &c.CacheTimeout); err != nil {
		return err
	}
	if err = applyBoolEnv("MEMORY_BRIDGE_ENRICHMENT_ENABLED", &c.EnrichmentEnabled); err != nil {
		return err
	}
	if err = applyIntEnv("MEMORY_BRIDGE_ENRICHMENT_QUEUE_SIZE", &c.EnrichmentQueueSize); err != nil {
		return err
	}
	if err = applyBoolEnv("MEMORY_BRIDGE_MANAGEMENT_ACCESS_LOG", &c.ManagementAccessLog); err != nil {
		return err
	}

	// API keys: MEMORY_BRIDGE_API_KEYS_<ORG_ID>=<key-value>.
	c.APIKeys = loadAPIKeysFromEnv()

	return nil
}

// loadAPIKeysFromEnv scans env vars matching MEMORY_BRIDGE_API_KEYS_<ORG_ID>=<key>[,<key>...]
// and returns a map from key value to orgId. Comma-separated values are
// supported so keys can be rotated without downtime.
func loadAPIKeysFromEnv() map[string]string {
	const prefix = "MEMORY_BRIDGE_API_KEYS_"
	result := map[string]string{}
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		eqIdx := strings.IndexByte(env, '=')
		if eqIdx < 0 {
			continue
		}
		orgID := strings.ToLower(strings.TrimSpace(env[len(prefix):eqIdx]))
		if orgID == "" {
			continue
		}
		for _, key := range strings.Split(env[eqIdx+1:], ",") {
			keyValue := strings.TrimSpace(key)
			if keyValue == "" {
				continue
			}
			result[keyValue] = orgID
		}
	}
	return result
}

func applyIntEnv(key string, dest *int) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dest = v
	return nil
}

func applyBoolEnv(key string, dest *bool) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dest = v
	return nil
}

func applyDurationEnv(key string, dest *time.Duration) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dest = v
	return nil
}
