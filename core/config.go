/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pelletier/go-toml"
)

var config *toml.Tree
var configLock sync.RWMutex

// LoadConfig loads the configuration from the specified TOML file.
// An empty file name resets the configuration, so that every accessor returns its default.
func LoadConfig(file string) error {
	if file == "" {
		ResetConfig()
		return nil
	}
	tree, err := toml.LoadFile(file)
	if err != nil {
		return fmt.Errorf("%w: unable to load %s: %v", ErrInvalidConfig, file, err)
	}
	configLock.Lock()
	config = tree
	configLock.Unlock()
	return nil
}

// LoadConfigString loads the configuration from TOML text.
func LoadConfigString(content string) error {
	tree, err := toml.Load(content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	configLock.Lock()
	config = tree
	configLock.Unlock()
	return nil
}

// ResetConfig discards any loaded configuration.
func ResetConfig() {
	configLock.Lock()
	config = nil
	configLock.Unlock()
}

func getConfigRaw(key string) interface{} {
	configLock.RLock()
	defer configLock.RUnlock()
	if config == nil {
		return nil
	}
	return config.Get(key)
}

// GetConfigIntDefault returns the integer configuration value at the specified key or the specified default value if it does not exist.
func GetConfigIntDefault(key string, def int) int {
	valRaw := getConfigRaw(key)
	if valRaw == nil {
		return def
	}
	val, ok := valRaw.(int64)
	if ok && val >= math.MinInt32 && val <= math.MaxInt32 {
		return int(val)
	}
	return def
}

// GetConfigStringDefault returns the string configuration value at the specified key or the specified default value if it does not exist.
func GetConfigStringDefault(key string, def string) string {
	valRaw := getConfigRaw(key)
	if valRaw == nil {
		return def
	}
	val, ok := valRaw.(string)
	if ok {
		return val
	}
	return def
}

// GetConfigBoolDefault returns the boolean configuration value at the specified key or the specified default value if it does not exist.
func GetConfigBoolDefault(key string, def bool) bool {
	valRaw := getConfigRaw(key)
	if valRaw == nil {
		return def
	}
	val, ok := valRaw.(bool)
	if ok {
		return val
	}
	return def
}

// GetConfigDurationMsDefault reads an integer number of milliseconds at the specified key.
// Non-positive values are treated as missing.
func GetConfigDurationMsDefault(key string, def time.Duration) time.Duration {
	ms := GetConfigIntDefault(key, -1)
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// GetConfigArrayString returns the configuration array value at the specified key or nil if it does not exist.
func GetConfigArrayString(key string) []string {
	configLock.RLock()
	defer configLock.RUnlock()
	if config == nil {
		return nil
	}
	array := config.GetArray(key)
	if array == nil {
		return nil
	}
	if val, ok := array.([]string); ok {
		return val
	}
	return nil
}
