package where

import (
	"strings"
	"testing"

	"github.com/castor-cli/castor/filesystem"
	"github.com/castor-cli/castor/key"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	// Use in-memory filesystem for tests to avoid creating real directories
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Cache()", func() {
			path := Cache()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs()", func() {
			path := Logs()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Library()", func() {
			path := Library()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Downloads()", func() {
			Convey("Defaults under the config directory", func() {
				viper.Set(key.DownloadsPath, "")
				path := Downloads()
				So(strings.HasPrefix(path, Config()), ShouldBeTrue)
				So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			})

			Convey("Honors the downloads.path override", func() {
				viper.Set(key.DownloadsPath, "/custom/downloads")
				So(Downloads(), ShouldEqual, "/custom/downloads")
				viper.Set(key.DownloadsPath, "")
			})
		})
	})
}
