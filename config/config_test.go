package config

import (
	"testing"

	"github.com/castor-cli/castor/filesystem"
	"github.com/castor-cli/castor/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Should register the full schema", func() {
			So(len(Default), ShouldEqual, key.DefinedFieldsCount)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("playback.persist.every"), ShouldEqual, "playback_persist_every")
		})
	})
}

func TestFieldEnv(t *testing.T) {
	Convey("Field environment names", t, func() {
		field := Default[key.DownloadsPath]
		So(field.Env(), ShouldEqual, "CASTOR_DOWNLOADS_PATH")
	})
}
