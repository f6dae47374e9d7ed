package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/fundineed/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.TokenTTL, convey.ShouldEqual, 8*time.Hour)
			convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		cases := map[string]func(*config.Config){
			"sqlite without a path": func(c *config.Config) { c.StoreDriver = config.StoreSQLite; c.DBPath = "" },
			"unknown log format":    func(c *config.Config) { c.LogFormat = "xml" },
			"zero workers":          func(c *config.Config) { c.WorkerCount = 0 },
			"negative cache ttl":    func(c *config.Config) { c.CacheTTL = -time.Second },
			"zero login limit":      func(c *config.Config) { c.LoginRateLimit = 0 },
			"zero body size":        func(c *config.Config) { c.MaxBodyBytes = 0 },
			"negative redis db":     func(c *config.Config) { c.RedisDB = -1 },
		}
		for name, mutate := range cases {
			convey.Convey("When it has "+name, func() {
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When both admin fields are set", func() {
			cfg.AdminPassword = "pw"
			convey.So(cfg.AdminEnabled(), convey.ShouldBeTrue)
		})
	})
}
