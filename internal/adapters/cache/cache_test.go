package cache

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Given cache key parts", t, func() {
		Convey("Then equal parts give equal keys under the prefix", func() {
			a := Key("emi:schedule", "500000", "10", "60")
			So(a, ShouldStartWith, "emi:schedule:")
			So(Key("emi:schedule", "500000", "10", "60"), ShouldEqual, a)
		})

		Convey("Then part boundaries matter", func() {
			So(Key("p", "ab", "c"), ShouldNotEqual, Key("p", "a", "bc"))
			So(Key("p", "500000", "10", "60"), ShouldNotEqual, Key("p", "500000", "10", "61"))
		})
	})
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory cache with a controllable clock", t, func() {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		c := NewMemoryCache(2)
		c.now = func() time.Time { return now }

		Convey("When a value is set", func() {
			So(c.Set(ctx, "k", []byte("v"), time.Minute), ShouldBeNil)

			Convey("Then it is returned until the ttl passes", func() {
				got, ok := c.Get(ctx, "k")
				So(ok, ShouldBeTrue)
				So(string(got), ShouldEqual, "v")

				now = now.Add(time.Minute)
				_, ok = c.Get(ctx, "k")
				So(ok, ShouldBeFalse)
				So(c.Len(), ShouldEqual, 0)
			})

			Convey("Then callers cannot mutate the stored bytes", func() {
				got, _ := c.Get(ctx, "k")
				got[0] = 'x'
				again, _ := c.Get(ctx, "k")
				So(string(again), ShouldEqual, "v")
			})
		})

		Convey("When a value has no ttl", func() {
			_ = c.Set(ctx, "forever", []byte("1"), 0)
			now = now.Add(24 * time.Hour)

			Convey("Then it never expires", func() {
				_, ok := c.Get(ctx, "forever")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the cache is full", func() {
			_ = c.Set(ctx, "old", []byte("1"), time.Second)
			_ = c.Set(ctx, "keep", []byte("2"), time.Hour)
			now = now.Add(2 * time.Second)
			_ = c.Set(ctx, "new", []byte("3"), time.Hour)

			Convey("Then expired entries are evicted first", func() {
				So(c.Len(), ShouldEqual, 2)
				_, ok := c.Get(ctx, "keep")
				So(ok, ShouldBeTrue)
				_, ok = c.Get(ctx, "new")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When full of live entries", func() {
			_ = c.Set(ctx, "a", []byte("1"), time.Hour)
			_ = c.Set(ctx, "b", []byte("2"), time.Hour)
			_ = c.Set(ctx, "c", []byte("3"), time.Hour)

			Convey("Then the size stays bounded", func() {
				So(c.Len(), ShouldEqual, 2)
				_, ok := c.Get(ctx, "c")
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestRedisCacheUnavailable(t *testing.T) {
	Convey("Given a redis cache pointed at a closed port", t, func() {
		c := NewRedisCache("127.0.0.1:1", WithTimeouts(50*time.Millisecond, 50*time.Millisecond))
		Reset(func() { _ = c.Close() })
		ctx := context.Background()

		Convey("Then reads miss and writes fail without panicking", func() {
			_, ok := c.Get(ctx, "k")
			So(ok, ShouldBeFalse)
			So(c.Set(ctx, "k", []byte("v"), time.Second), ShouldNotBeNil)
			So(c.Ping(ctx), ShouldNotBeNil)
		})
	})
}
