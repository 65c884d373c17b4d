// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stun

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "natreach",
		Subsystem: "stun",
		Name:      "probes_total",
		Help:      "Total number of per port probes, per address family and outcome.",
	}, []string{"family", "result"})
	metricNATTypeDetections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "natreach",
		Subsystem: "stun",
		Name:      "nat_type_detections_total",
		Help:      "Total number of NAT type detections, per detected type.",
	}, []string{"type"})
)

const (
	resultAnswered   = "answered"
	resultUnanswered = "unanswered"
	resultUnbound    = "unbound"
)
