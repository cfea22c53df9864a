package player

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		Convey("Should accept http(s) URLs", func() {
			target, err := sanitizeMediaTarget("https://example.com/ep.mp3")
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "https://example.com/ep.mp3")
		})

		Convey("Should accept and clean local paths", func() {
			target, err := sanitizeMediaTarget("downloads//pod/./ep.mp3")
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "downloads/pod/ep.mp3")
		})

		Convey("Should reject empty targets", func() {
			_, err := sanitizeMediaTarget("   ")
			So(err, ShouldNotBeNil)
		})

		Convey("Should reject flag-shaped targets", func() {
			_, err := sanitizeMediaTarget("--script=evil.lua")
			So(err, ShouldNotBeNil)
		})

		Convey("Should reject control characters", func() {
			_, err := sanitizeMediaTarget("https://example.com/a\nb")
			So(err, ShouldNotBeNil)
		})

		Convey("Should reject foreign schemes", func() {
			_, err := sanitizeMediaTarget("ftp://example.com/ep.mp3")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSanitizeTitle(t *testing.T) {
	Convey("sanitizeTitle", t, func() {
		So(sanitizeTitle("Episode\n42\t"), ShouldEqual, "Episode 42")
		So(sanitizeTitle("a\x00b"), ShouldEqual, "ab")
	})
}
