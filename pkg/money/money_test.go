package money

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFixed(t *testing.T) {
	Convey("Given calculator outputs", t, func() {
		Convey("Then they round half away from zero to two places", func() {
			So(Fixed(10623.52355), ShouldEqual, "10623.52")
			So(Fixed(8333.333333), ShouldEqual, "8333.33")
			So(Fixed(0.005), ShouldEqual, "0.01")
			So(Fixed(-0.005), ShouldEqual, "-0.01")
			So(Fixed(0), ShouldEqual, "0.00")
		})
	})
}

func TestINR(t *testing.T) {
	Convey("Given amounts in rupees", t, func() {
		Convey("Then they use Indian digit grouping", func() {
			So(INR(0), ShouldEqual, "₹0.00")
			So(INR(999), ShouldEqual, "₹999.00")
			So(INR(1000), ShouldEqual, "₹1,000.00")
			So(INR(150000), ShouldEqual, "₹1,50,000.00")
			So(INR(1234567.891), ShouldEqual, "₹12,34,567.89")
			So(INR(100000000), ShouldEqual, "₹10,00,00,000.00")
		})

		Convey("Then negative amounts keep the sign in front", func() {
			So(INR(-1500.5), ShouldEqual, "-₹1,500.50")
		})
	})
}

func TestNonFinite(t *testing.T) {
	Convey("Given values float64 cannot round", t, func() {
		nan, inf := math.NaN(), math.Inf(1)

		Convey("Then formatting does not panic", func() {
			So(func() { Fixed(nan) }, ShouldNotPanic)
			So(func() { INR(inf) }, ShouldNotPanic)
			So(func() { Round(math.Inf(-1)) }, ShouldNotPanic)
		})

		Convey("Then they render by name", func() {
			So(Fixed(nan), ShouldEqual, "NaN")
			So(Fixed(inf), ShouldEqual, "+Inf")
			So(INR(math.Inf(-1)), ShouldEqual, "-Inf")
		})

		Convey("Then Round falls back to zero", func() {
			So(Round(nan).IsZero(), ShouldBeTrue)
			So(Finite(nan), ShouldBeFalse)
			So(Finite(1.5), ShouldBeTrue)
		})
	})
}
