// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package main

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/golang-auth/go-cryptokit"
	"github.com/golang-auth/go-cryptokit/internal/certgen"
	"github.com/golang-auth/go-cryptokit/metrics"
	"github.com/golang-auth/go-cryptokit/sasl"
	"github.com/golang-auth/go-cryptokit/tls"
	"github.com/golang-auth/go-cryptokit/userdb"
)

const maxRounds = 32

var errNoProgress = errors.New("loopback exchange did not settle")

func (a *app) selftestCmd() *cobra.Command {
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run a client and a server against each other in memory",
	}
	cmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file afterwards")

	withMetrics := func(f func(*metrics.Metrics) error) error {
		m, err := metrics.New(a.cfg.MetricsNamespace)
		if err != nil {
			return err
		}
		if err := f(m); err != nil {
			return err
		}
		if metricsFile != "" {
			return prometheus.WriteToTextfile(metricsFile, m.Registry())
		}
		return nil
	}

	var host string
	tlsCmd := &cobra.Command{
		Use:   "tls",
		Short: "Handshake against a throwaway CA and echo a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMetrics(func(m *metrics.Metrics) error {
				return a.tlsSelfTest(cmd, m, host)
			})
		},
	}
	tlsCmd.Flags().StringVar(&host, "host", "selftest.example", "server host name")

	var mech string
	saslCmd := &cobra.Command{
		Use:   "sasl",
		Short: "Authenticate a throwaway user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMetrics(func(m *metrics.Metrics) error {
				return a.saslSelfTest(cmd, m, mech)
			})
		},
	}
	saslCmd.Flags().StringVar(&mech, "mech", "SCRAM-SHA-256", "mechanism to use")

	cmd.AddCommand(tlsCmd, saslCmd)
	return cmd
}

func (a *app) tlsSelfTest(cmd *cobra.Command, m *metrics.Metrics, host string) error {
	ca, err := certgen.NewCA("cryptokit selftest CA")
	if err != nil {
		return err
	}
	leaf, err := ca.Issue(certgen.Options{CommonName: host, Hosts: []string{host}})
	if err != nil {
		return err
	}

	caCert, err := cryptokit.CertFromDER(ca.Cert)
	if err != nil {
		return err
	}
	cert, err := cryptokit.CertFromDER(leaf.Cert)
	if err != nil {
		return err
	}
	key, err := cryptokit.RSAKeyFromDER(leaf.Key)
	if err != nil {
		return err
	}

	server := tls.NewSession(tls.WithLogger(a.log))
	defer server.Reset()
	server.SetEventHandler(m.TLSHandler(server, nil))
	if err := server.SetCertificate(cert.Context(), key.Context()); err != nil {
		return err
	}

	client := tls.NewSession(tls.WithLogger(a.log))
	defer client.Reset()
	client.SetEventHandler(m.TLSHandler(client, nil))
	if err := client.SetCertificateStore(tls.NewStore(caCert.Context())); err != nil {
		return err
	}

	if err := server.StartServer(); err != nil {
		return err
	}
	if err := client.StartClient(host); err != nil {
		return err
	}
	if err := pumpTLS(m, client, server); err != nil {
		return err
	}
	if !client.IsHandshaken() || !server.IsHandshaken() {
		return fmt.Errorf("handshake failed: client %s, server %s", client.Phase(), server.Phase())
	}

	out := cmd.OutOrStdout()
	peer := cryptokit.CertFromContext(client.PeerCertificate())
	fmt.Fprintf(out, "handshake complete, server %q is %s\n", peer.CommonName(), client.CertificateValidityResult())

	msg := []byte("ping")
	if err := client.Write(msg); err != nil {
		return err
	}
	if err := pumpTLS(m, client, server); err != nil {
		return err
	}
	got := server.Read()
	if !bytes.Equal(got, msg) {
		return fmt.Errorf("server read %q, want %q", got, msg)
	}
	if err := server.Write(got); err != nil {
		return err
	}
	if err := pumpTLS(m, client, server); err != nil {
		return err
	}
	if got := client.Read(); !bytes.Equal(got, msg) {
		return fmt.Errorf("client read %q, want %q", got, msg)
	}
	fmt.Fprintln(out, "echo ok")

	if err := client.Close(); err != nil {
		return err
	}
	if err := pumpTLS(m, client, server); err != nil {
		return err
	}
	fmt.Fprintf(out, "closed: server %s\n", server.Phase())
	return nil
}

func pumpTLS(m *metrics.Metrics, a, b *tls.Session) error {
	for i := 0; i < maxRounds; i++ {
		moved := false
		if out, _ := m.TLSReadOutgoing(a); len(out) > 0 {
			if err := b.WriteIncoming(out); err != nil {
				return err
			}
			moved = true
		}
		if out, _ := m.TLSReadOutgoing(b); len(out) > 0 {
			if err := a.WriteIncoming(out); err != nil {
				return err
			}
			moved = true
		}
		if !moved {
			return nil
		}
	}
	return errNoProgress
}

func (a *app) saslSelfTest(cmd *cobra.Command, m *metrics.Metrics, mech string) error {
	users, err := userdb.New(userdb.WithLogger(a.loggable()))
	if err != nil {
		return err
	}
	secret := make([]byte, 12)
	if _, err := rand.Read(secret); err != nil {
		return err
	}
	password := cryptokit.ArrayToHex(secret)
	if err := users.Add("selftest", "", password); err != nil {
		return err
	}

	var serverEvents, clientEvents []sasl.Event
	server := sasl.NewSession(sasl.WithLogger(a.log), sasl.WithUserStore(users))
	server.SetEventHandler(m.SASLHandler(func(e sasl.Event) { serverEvents = append(serverEvents, e) }))
	a.cfg.ConfigureSASL(server)

	client := sasl.NewSession(sasl.WithLogger(a.log))
	client.SetEventHandler(m.SASLHandler(func(e sasl.Event) { clientEvents = append(clientEvents, e) }))
	a.cfg.ConfigureSASL(client)
	client.SetUsername("selftest")
	client.SetPassword(password)
	client.SetExternalAuthID("selftest")
	server.SetExternalAuthID("selftest")

	offered, err := server.StartServer("selftest", "", "")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "server offers %v\n", offered)

	if err := client.StartClient("selftest", "", []string{mech}, true); err != nil {
		return err
	}

	for i := 0; i < maxRounds; i++ {
		cev, sev := clientEvents, serverEvents
		clientEvents, serverEvents = nil, nil
		if len(cev) == 0 && len(sev) == 0 {
			break
		}

		for _, e := range cev {
			switch e := e.(type) {
			case sasl.ClientFirstStep:
				var init []byte
				if e.HasInit {
					init = append([]byte{}, e.Init...)
				}
				err = server.PutServerFirstStep(e.Mech, init)
			case sasl.NextStep:
				err = server.PutStep(e.Data)
			case sasl.Error:
				return fmt.Errorf("client: %w", e.Err)
			}
			if err != nil {
				return err
			}
		}
		for _, e := range sev {
			switch e := e.(type) {
			case sasl.AuthCheck:
				fmt.Fprintf(out, "server: %q authenticated as %q\n", e.User, e.Authzid)
				err = server.ContinueAfterAuthCheck()
			case sasl.NextStep:
				err = client.PutStep(e.Data)
			case sasl.Error:
				return fmt.Errorf("server: %w", e.Err)
			}
			if err != nil {
				return err
			}
		}
	}

	if client.Phase() != sasl.PhaseAuthenticated || server.Phase() != sasl.PhaseAuthenticated {
		return fmt.Errorf("authentication incomplete: client %s, server %s", client.Phase(), server.Phase())
	}
	fmt.Fprintf(out, "authenticated with %s, SSF %d\n", client.Mech(), client.SSF())
	return nil
}
