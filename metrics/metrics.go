// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package metrics counts TLS and SASL session events in Prometheus.
//
// Collectors are fed by wrapping a session's event handler:
//
//	m, _ := metrics.New("cryptokit")
//	s := tls.NewSession()
//	s.SetEventHandler(m.TLSHandler(s, myHandler))
//
// ReadyReadOutgoing only fires when the outgoing buffer becomes
// non-empty, so sent bytes are counted where the wire bytes are drained:
//
//	wire, _ := m.TLSReadOutgoing(s)
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/golang-auth/go-cryptokit/sasl"
	"github.com/golang-auth/go-cryptokit/tls"
)

type Metrics struct {
	registry *prometheus.Registry

	tlsHandshakes *prometheus.CounterVec
	tlsErrors     *prometheus.CounterVec
	tlsBytes      prometheus.Counter
	saslAuth      *prometheus.CounterVec
	saslErrors    *prometheus.CounterVec
	saslSuspended *prometheus.CounterVec
	saslSSF       prometheus.Histogram
	saslBytes     prometheus.Counter
}

// New creates the collectors under namespace in a private registry.
func New(namespace string) (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tlsHandshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tls",
			Name:      "handshakes_total",
			Help:      "Completed TLS handshakes by peer certificate validity.",
		}, []string{"validity"}),
		tlsErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tls",
			Name:      "errors_total",
			Help:      "TLS sessions that failed, by error kind.",
		}, []string{"kind"}),
		tlsBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tls",
			Name:      "plaintext_bytes_sent_total",
			Help:      "Application bytes protected and drained for sending.",
		}),
		saslAuth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sasl",
			Name:      "authentications_total",
			Help:      "Successful SASL authentications by mechanism.",
		}, []string{"mech"}),
		saslErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sasl",
			Name:      "errors_total",
			Help:      "SASL sessions that failed, by error kind.",
		}, []string{"kind"}),
		saslSuspended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sasl",
			Name:      "suspensions_total",
			Help:      "Times a SASL session waited for the application.",
		}, []string{"reason"}),
		saslSSF: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sasl",
			Name:      "negotiated_ssf",
			Help:      "Security strength factor of authenticated SASL sessions.",
			Buckets:   []float64{0, 1, 56, 112, 128, 256},
		}),
		saslBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sasl",
			Name:      "plaintext_bytes_sent_total",
			Help:      "Application bytes passed through the SASL security layer and drained for sending.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.tlsHandshakes, m.tlsErrors, m.tlsBytes,
		m.saslAuth, m.saslErrors, m.saslSuspended, m.saslSSF, m.saslBytes,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// TLSHandler returns an event handler for s that records the event and
// then calls next, if set.  It needs the session to read the validity.
func (m *Metrics) TLSHandler(s *tls.Session, next func(tls.Event)) func(tls.Event) {
	return func(e tls.Event) {
		switch e := e.(type) {
		case tls.Handshaken:
			m.tlsHandshakes.WithLabelValues(s.CertificateValidityResult().String()).Inc()
		case tls.Error:
			m.tlsErrors.WithLabelValues(e.Kind.String()).Inc()
		}
		if next != nil {
			next(e)
		}
	}
}

// SASLHandler is the SASL counterpart of TLSHandler.
func (m *Metrics) SASLHandler(next func(sasl.Event)) func(sasl.Event) {
	return func(e sasl.Event) {
		switch e := e.(type) {
		case sasl.Authenticated:
			m.saslAuth.WithLabelValues(e.Mech).Inc()
			m.saslSSF.Observe(float64(e.SSF))
		case sasl.NeedParams:
			m.saslSuspended.WithLabelValues("params").Inc()
		case sasl.AuthCheck:
			m.saslSuspended.WithLabelValues("auth_check").Inc()
		case sasl.Error:
			m.saslErrors.WithLabelValues(e.Kind.String()).Inc()
		}
		if next != nil {
			next(e)
		}
	}
}

// TLSReadOutgoing drains s like s.ReadOutgoing and counts the
// application bytes the wire bytes carry.
func (m *Metrics) TLSReadOutgoing(s *tls.Session) ([]byte, int) {
	wire, n := s.ReadOutgoing()
	m.tlsBytes.Add(float64(n))
	return wire, n
}

// SASLReadOutgoing is the SASL counterpart of TLSReadOutgoing.
func (m *Metrics) SASLReadOutgoing(s *sasl.Session) ([]byte, int) {
	wire, n := s.ReadOutgoing()
	m.saslBytes.Add(float64(n))
	return wire, n
}
