package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/m3rciful/onboardbot/core/buildinfo"
)

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeFunc(
	prometheus.GaugeOpts{
		Name: "onboardbot_build_info",
		Help: "Constant 1, labelled with the build version and commit.",
		ConstLabels: prometheus.Labels{
			"version":    buildinfo.Version,
			"commit":     buildinfo.Commit,
			"go_version": runtime.Version(),
		},
	},
	func() float64 { return 1 },
)
