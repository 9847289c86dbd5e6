package config

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CollectionsConfig carries the business tuning knobs for debt
// aggregation. It is hot-reloadable so operators can adjust tolerance or
// the anchor timezone without restarting the service.
type CollectionsConfig struct {
	// Tolerance is the minimum overpayment that is worth recording as a
	// prepaid credit. Anything at or below it is ignored.
	Tolerance float64 `mapstructure:"tolerance"`

	// AnchorTimeZone is the timezone in which due dates, day rollovers
	// and "today" comparisons are evaluated.
	AnchorTimeZone string `mapstructure:"anchor_time_zone"`

	// RecentPaidWindowDays is how long a fully-paid month keeps a
	// contract in the "paid" bucket before it moves to "upcoming".
	RecentPaidWindowDays int `mapstructure:"recent_paid_window_days"`
}

func defaultCollectionsConfig() CollectionsConfig {
	return CollectionsConfig{
		Tolerance:            0,
		AnchorTimeZone:       "Asia/Tashkent",
		RecentPaidWindowDays: 30,
	}
}

func (c CollectionsConfig) validate() error {
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %v", c.Tolerance)
	}
	if c.RecentPaidWindowDays <= 0 {
		return fmt.Errorf("recent_paid_window_days must be > 0, got %d", c.RecentPaidWindowDays)
	}
	if _, err := time.LoadLocation(c.AnchorTimeZone); err != nil {
		return fmt.Errorf("invalid anchor_time_zone %q: %w", c.AnchorTimeZone, err)
	}
	return nil
}

// Location resolves the anchor timezone. The value is validated at load
// time, so a failure here falls back to UTC rather than panicking.
func (c CollectionsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.AnchorTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CollectionsConfigHolder keeps the current CollectionsConfig and swaps
// it atomically when the backing file changes on disk.
type CollectionsConfigHolder struct {
	current atomic.Value
	log     *zap.Logger
}

// NewCollectionsConfigHolder loads collections.yaml if present and
// watches it for changes. A missing file is not an error; defaults apply.
func NewCollectionsConfigHolder(log *zap.Logger) (*CollectionsConfigHolder, error) {
	h := &CollectionsConfigHolder{log: log.Named("config.collections")}

	v := viper.New()
	v.SetConfigName("collections")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	def := defaultCollectionsConfig()
	v.SetDefault("tolerance", def.Tolerance)
	v.SetDefault("anchor_time_zone", def.AnchorTimeZone)
	v.SetDefault("recent_paid_window_days", def.RecentPaidWindowDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read collections config: %w", err)
		}
	}

	cfg, err := unmarshalCollections(v)
	if err != nil {
		return nil, err
	}
	h.current.Store(cfg)

	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(_ fsnotify.Event) {
			next, err := unmarshalCollections(v)
			if err != nil {
				h.log.Warn("ignoring invalid collections config change", zap.Error(err))
				return
			}
			h.current.Store(next)
			h.log.Info("collections config reloaded",
				zap.Float64("tolerance", next.Tolerance),
				zap.String("anchor_time_zone", next.AnchorTimeZone),
				zap.Int("recent_paid_window_days", next.RecentPaidWindowDays),
			)
		})
		v.WatchConfig()
	}

	return h, nil
}

// NewStaticCollectionsConfigHolder returns a holder pinned to cfg. Used
// by tests and one-shot tools that do not want file watching.
func NewStaticCollectionsConfigHolder(cfg CollectionsConfig) *CollectionsConfigHolder {
	h := &CollectionsConfigHolder{log: zap.NewNop()}
	h.current.Store(cfg)
	return h
}

// Get returns the current collections config snapshot.
func (h *CollectionsConfigHolder) Get() CollectionsConfig {
	return h.current.Load().(CollectionsConfig)
}

func unmarshalCollections(v *viper.Viper) (CollectionsConfig, error) {
	var cfg CollectionsConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return CollectionsConfig{}, fmt.Errorf("unmarshal collections config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return CollectionsConfig{}, err
	}
	return cfg, nil
}
