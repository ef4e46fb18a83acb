/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"asset-lifecycle-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	newAssetGrace, err := getEnvDuration("NEW_ASSET_GRACE", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	dueSoonWindow, err := getEnvDuration("REPAIR_DUE_SOON_WINDOW", 4*24*time.Hour)
	if err != nil {
		return nil, err
	}

	runTimeout, err := getEnvDuration("SCHEDULE_RUN_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	lockTTL, err := getEnvDuration("REDIS_LOCK_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	schedule, err := loadSchedule(runTimeout)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "assets.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Lifecycle: models.LifecycleConfig{
			StatusCatalogFile:        getEnvString("STATUS_CATALOG_FILE", "statuses.yaml"),
			NewAssetGrace:            newAssetGrace,
			DefectiveRetentionMonths: getEnvInt("DEFECTIVE_RETENTION_MONTHS", 1),
			RepairDueSoonWindow:      dueSoonWindow,
			AssetCodePrefix:          getEnvString("ASSET_CODE_PREFIX", "AST"),
		},
		Schedule: *schedule,
		Documents: models.DocumentConfig{
			Backend:         getEnvString("DOCUMENT_BACKEND", "local"),
			Dir:             getEnvString("DOCUMENT_DIR", "./documents"),
			Bucket:          getEnvString("GCS_BUCKET", ""),
			CredentialsJSON: getEnvString("GCS_CREDENTIALS_JSON", ""),
			MaxBytes:        int64(getEnvInt("DOCUMENT_MAX_BYTES", 5*1024*1024)),
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "asset-depreciation"),
			Currency:     getEnvString("FORMANCE_CURRENCY", "PHP"),
		},
		Redis: models.RedisConfig{
			Address: getEnvString("REDIS_ADDRESS", ""),
			LockTTL: lockTTL,
		},
		Ops: models.OpsConfig{
			Addr: getEnvString("OPS_ADDR", ":9090"),
		},
	}, nil
}

func loadSchedule(runTimeout time.Duration) (*models.ScheduleConfig, error) {
	loc, err := time.LoadLocation(getEnvString("SCHEDULE_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE: %w", err)
	}

	bookValueTimes, err := getEnvTimes("SCHEDULE_BOOK_VALUE_TIMES", "08:00,12:00,16:00")
	if err != nil {
		return nil, err
	}

	statusTimes, err := getEnvTimes("SCHEDULE_STATUS_TIMES", "08:15,16:15")
	if err != nil {
		return nil, err
	}

	purgeTimes, err := getEnvTimes("SCHEDULE_PURGE_TIMES", "00:30")
	if err != nil {
		return nil, err
	}

	catchupStart, err := getEnvTime("SCHEDULE_CATCHUP_START", "08:00")
	if err != nil {
		return nil, err
	}

	catchupEnd, err := getEnvTime("SCHEDULE_CATCHUP_END", "18:00")
	if err != nil {
		return nil, err
	}

	return &models.ScheduleConfig{
		Location:       loc,
		BookValueTimes: bookValueTimes,
		StatusTimes:    statusTimes,
		PurgeTimes:     purgeTimes,
		CatchupStart:   catchupStart,
		CatchupEnd:     catchupEnd,
		RunTimeout:     runTimeout,
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvTime(key, defaultValue string) (models.TimeOfDay, error) {
	value := getEnvString(key, defaultValue)
	t, err := ParseTimeOfDay(value)
	if err != nil {
		return models.TimeOfDay{}, fmt.Errorf("invalid time of day for %s: %w", key, err)
	}
	return t, nil
}

func getEnvTimes(key, defaultValue string) ([]models.TimeOfDay, error) {
	value := getEnvString(key, defaultValue)
	var times []models.TimeOfDay
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := ParseTimeOfDay(part)
		if err != nil {
			return nil, fmt.Errorf("invalid time list for %s: %w", key, err)
		}
		times = append(times, t)
	}
	return times, nil
}

// ParseTimeOfDay parses an "HH:MM" 24-hour wall-clock time.
func ParseTimeOfDay(value string) (models.TimeOfDay, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return models.TimeOfDay{}, fmt.Errorf("%q is not HH:MM", value)
	}
	return models.TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}
