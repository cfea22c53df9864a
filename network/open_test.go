package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidateURL(t *testing.T) {
	Convey("ValidateURL", t, func() {
		Convey("Should accept http and https", func() {
			So(ValidateURL("http://example.com/audio.mp3"), ShouldBeNil)
			So(ValidateURL("https://example.com/audio.mp3"), ShouldBeNil)
		})

		Convey("Should reject foreign schemes", func() {
			err := ValidateURL("ftp://bad")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrInvalidURL), ShouldBeTrue)
		})

		Convey("Should reject empty hosts", func() {
			err := ValidateURL("http:///audio.mp3")
			So(errors.Is(err, ErrInvalidURL), ShouldBeTrue)
		})

		Convey("Should reject garbage", func() {
			So(errors.Is(ValidateURL(""), ErrInvalidURL), ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Open", t, func() {
		payload := []byte("podcast audio bytes")

		Convey("Should stream the body with an advertised length", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(payload)
			}))
			defer srv.Close()

			stream, err := Open(context.Background(), srv.URL, nil)
			So(err, ShouldBeNil)
			defer stream.Body.Close()

			So(stream.ContentLength.IsPresent(), ShouldBeTrue)
			So(stream.ContentLength.MustGet(), ShouldEqual, int64(len(payload)))

			body, err := io.ReadAll(stream.Body)
			So(err, ShouldBeNil)
			So(body, ShouldResemble, payload)
		})

		Convey("Should surface non-2xx responses as errors", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer srv.Close()

			_, err := Open(context.Background(), srv.URL, nil)
			So(err, ShouldNotBeNil)
		})

		Convey("Should never dial for an invalid URL", func() {
			_, err := Open(context.Background(), "ftp://bad", nil)
			So(errors.Is(err, ErrInvalidURL), ShouldBeTrue)
		})
	})
}
