package main

import (
	"context"
	"net/http"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/prsim/prsim/internal/adapters/http/api"
	app "github.com/prsim/prsim/internal/app"
	"github.com/prsim/prsim/internal/config"
)

func TestMainWiring(t *testing.T) {
	Convey("Given process environment configuration", t, func() {
		_ = os.Setenv("PRSIM_ADDR", ":9090")
		_ = os.Setenv("PRSIM_WORKER_COUNT", "2")
		defer func() {
			_ = os.Unsetenv("PRSIM_ADDR")
			_ = os.Unsetenv("PRSIM_WORKER_COUNT")
		}()

		Convey("When configuration loads", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.WorkerCount, ShouldEqual, 2)

			Convey("Then the service and routes assemble without starting", func() {
				svc := app.New(cfg)
				So(svc, ShouldNotBeNil)

				mux := http.NewServeMux()
				server := api.NewServer(svc.Releases(), svc.Headlines(), svc.Campaigns(), svc)
				So(func() { server.Register(mux) }, ShouldNotPanic)
			})
		})
	})

	Convey("Given a broken environment configuration", t, func() {
		_ = os.Setenv("PRSIM_STORE", "cassandra")
		defer func() { _ = os.Unsetenv("PRSIM_STORE") }()

		Convey("Then loading fails", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
			So(cfg, ShouldBeNil)
		})
	})
}
