package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversion(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90.0)
	test.That(t, RadToDeg(DegToRad(33)), test.ShouldAlmostEqual, 33.0)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(-0.5, 0, 1), test.ShouldEqual, 0.0)
	test.That(t, Clamp(0.25, 0, 1), test.ShouldEqual, 0.25)
	test.That(t, Clamp(3, 0, 1), test.ShouldEqual, 1.0)
}

func TestFloatHelpers(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1+1e-9, 1e-8), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, 1e-8), test.ShouldBeFalse)
	test.That(t, IsFinite(2), test.ShouldBeTrue)
	test.That(t, IsFinite(math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
	test.That(t, Square(-3), test.ShouldEqual, 9.0)
}
