package sasl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider/std"
	"github.com/golang-auth/go-cryptokit/sasl"
	"github.com/golang-auth/go-cryptokit/userdb"
)

func newUsers(t *testing.T) *userdb.DB {
	db, err := userdb.New()
	require.NoError(t, err)
	require.NoError(t, db.Add("alice", "", "wonderland"))
	return db
}

// drive relays tokens between client and server until both settle,
// answering auth checks with acceptance.  It returns the last event seen
// on each side.
func drive(t *testing.T, client, server *sasl.Session) (cli, srv sasl.Event) {
	var toServer, toClient [][]byte
	var mech string
	var init []byte
	var hasInit, started bool

	for i := 0; i < 20; i++ {
		resumed := false
		for _, e := range client.Events() {
			cli = e
			switch e := e.(type) {
			case sasl.ClientFirstStep:
				mech, init, hasInit = e.Mech, e.Init, e.HasInit
			case sasl.NextStep:
				toServer = append(toServer, e.Data)
			}
		}
		for _, e := range server.Events() {
			srv = e
			switch e := e.(type) {
			case sasl.NextStep:
				toClient = append(toClient, e.Data)
			case sasl.AuthCheck:
				require.NoError(t, server.ContinueAfterAuthCheck())
				resumed = true
			}
		}

		switch {
		case mech != "" && !started:
			started = true
			var in []byte
			if hasInit {
				in = init
				if in == nil {
					in = []byte{}
				}
			}
			require.NoError(t, server.PutServerFirstStep(mech, in))
		case len(toServer) > 0:
			require.NoError(t, server.PutStep(toServer[0]))
			toServer = toServer[1:]
		case len(toClient) > 0:
			require.NoError(t, client.PutStep(toClient[0]))
			toClient = toClient[1:]
		case !resumed:
			return cli, srv
		}
	}
	t.Fatal("exchange did not settle")
	return nil, nil
}

func TestSCRAMExchange(t *testing.T) {
	users := newUsers(t)

	for _, mech := range []string{"SCRAM-SHA-1", "SCRAM-SHA-256"} {
		t.Run(mech, func(t *testing.T) {
			server := sasl.NewSession(sasl.WithProvider(std.New()), sasl.WithUserStore(users))
			offered, err := server.StartServer("imap", "mail.example.test", "")
			require.NoError(t, err)
			assert.Equal(t, []string{"SCRAM-SHA-1", "SCRAM-SHA-256"}, offered)

			client := sasl.NewSession(sasl.WithProvider(std.New()))
			client.SetUsername("alice")
			client.SetPassword("wonderland")
			require.NoError(t, client.StartClient("imap", "mail.example.test", []string{mech}, true))

			cli, srv := drive(t, client, server)
			assert.Equal(t, sasl.Authenticated{Mech: mech}, cli)
			assert.Equal(t, sasl.Authenticated{Mech: mech}, srv)
			assert.Equal(t, sasl.PhaseAuthenticated, client.Phase())
			assert.Equal(t, sasl.PhaseAuthenticated, server.Phase())
		})
	}
}

func TestSCRAMWrongPassword(t *testing.T) {
	server := sasl.NewSession(sasl.WithProvider(std.New()), sasl.WithUserStore(newUsers(t)))
	_, err := server.StartServer("imap", "", "")
	require.NoError(t, err)

	client := sasl.NewSession(sasl.WithProvider(std.New()))
	client.SetUsername("alice")
	client.SetPassword("looking-glass")
	require.NoError(t, client.StartClient("imap", "", []string{"SCRAM-SHA-256"}, true))

	_, srv := drive(t, client, server)
	e, ok := srv.(sasl.Error)
	require.True(t, ok)
	assert.Equal(t, sasl.ErrAuth, e.Kind)
	assert.Equal(t, sasl.PhaseFailed, server.Phase())
}

func TestPlainNeedsParams(t *testing.T) {
	client := sasl.NewSession(sasl.WithProvider(std.New()))
	client.SetAllowPlain(true)
	require.NoError(t, client.StartClient("imap", "", []string{"PLAIN"}, true))

	assert.Equal(t, []sasl.Event{sasl.NeedParams{User: true, Password: true}}, client.Events())
	assert.Equal(t, sasl.PhaseAwaitingParams, client.Phase())

	// suspended sessions refuse tokens without changing state
	assert.ErrorIs(t, client.PutStep([]byte("x")), common.ErrSuspended)
	assert.Equal(t, sasl.PhaseAwaitingParams, client.Phase())

	client.SetUsername("alice")
	client.SetPassword("wonderland")
	require.NoError(t, client.ContinueAfterParams())

	assert.Equal(t, []sasl.Event{
		sasl.ClientFirstStep{Mech: "PLAIN", Init: []byte("\x00alice\x00wonderland"), HasInit: true},
		sasl.Authenticated{Mech: "PLAIN"},
	}, client.Events())
}

func TestPlainServerFirst(t *testing.T) {
	server := sasl.NewSession(sasl.WithProvider(std.New()), sasl.WithUserStore(newUsers(t)))
	server.SetAllowPlain(true)
	offered, err := server.StartServer("imap", "", "")
	require.NoError(t, err)
	assert.Contains(t, offered, "PLAIN")

	client := sasl.NewSession(sasl.WithProvider(std.New()))
	client.SetAllowPlain(true)
	client.SetUsername("alice")
	client.SetAuthzid("admin")
	client.SetPassword("wonderland")
	require.NoError(t, client.StartClient("imap", "", []string{"PLAIN"}, false))
	assert.Equal(t, []sasl.Event{sasl.ClientFirstStep{Mech: "PLAIN"}}, client.Events())

	// no initial response: the server asks with an empty challenge
	require.NoError(t, server.PutServerFirstStep("PLAIN", nil))
	ev := server.Events()
	require.Len(t, ev, 1)
	challenge := ev[0].(sasl.NextStep)
	assert.Empty(t, challenge.Data)

	require.NoError(t, client.PutStep(challenge.Data))
	ev = client.Events()
	require.Len(t, ev, 2)
	resp := ev[0].(sasl.NextStep)
	assert.Equal(t, sasl.Authenticated{Mech: "PLAIN"}, ev[1])

	require.NoError(t, server.PutStep(resp.Data))
	assert.Equal(t, []sasl.Event{sasl.AuthCheck{User: "alice", Authzid: "admin"}}, server.Events())

	// refusing the identity is a reset
	server.Reset()
	assert.Equal(t, sasl.PhaseIdle, server.Phase())
	assert.Empty(t, server.Mech())
}

func TestPlainRefusedByDefault(t *testing.T) {
	client := sasl.NewSession(sasl.WithProvider(std.New()))
	require.NoError(t, client.StartClient("imap", "", []string{"PLAIN"}, true))

	ev := client.Events()
	require.Len(t, ev, 1)
	e := ev[0].(sasl.Error)
	assert.Equal(t, sasl.ErrAuth, e.Kind)
	assert.ErrorIs(t, e.Err, common.ErrNoMech)
}

func TestServerRefusesPlain(t *testing.T) {
	server := sasl.NewSession(sasl.WithProvider(std.New()), sasl.WithUserStore(newUsers(t)))
	server.SetAllowPlain(false)
	offered, err := server.StartServer("imap", "", "")
	require.NoError(t, err)
	assert.NotContains(t, offered, "PLAIN")
	assert.Equal(t, sasl.PhaseNegotiating, server.Phase())
	assert.Zero(t, server.SSF())

	client := sasl.NewSession(sasl.WithProvider(std.New()))
	client.SetAllowPlain(true)
	client.SetUsername("alice")
	client.SetPassword("wonderland")
	require.NoError(t, client.StartClient("imap", "", []string{"PLAIN"}, true))
	ev := client.Events()
	require.Len(t, ev, 1)
	first := ev[0].(sasl.ClientFirstStep)
	assert.Equal(t, "PLAIN", first.Mech)

	require.NoError(t, server.PutServerFirstStep(first.Mech, first.Init))
	assert.Equal(t, sasl.PhaseFailed, server.Phase())
	ev = server.Events()
	require.Len(t, ev, 1)
	e := ev[0].(sasl.Error)
	assert.Equal(t, sasl.ErrAuth, e.Kind)
	assert.ErrorIs(t, e.Err, common.ErrNoMech)
	assert.Zero(t, server.SSF())
}

func TestExternal(t *testing.T) {
	client := sasl.NewSession(sasl.WithProvider(std.New()))
	require.NoError(t, client.StartClient("imap", "", []string{"EXTERNAL"}, true))
	assert.Equal(t, sasl.PhaseFailed, client.Phase(), "EXTERNAL needs an external identity")

	client.Reset()
	client.SetExternalAuthID("CN=alice")
	client.SetExternalSSF(256)
	require.NoError(t, client.StartClient("imap", "", []string{"EXTERNAL"}, true))

	server := sasl.NewSession(sasl.WithProvider(std.New()))
	server.SetExternalAuthID("CN=alice")
	server.SetExternalSSF(256)
	_, err := server.StartServer("imap", "", "")
	require.NoError(t, err)

	cli, srv := drive(t, client, server)
	assert.Equal(t, sasl.Authenticated{Mech: "EXTERNAL"}, cli)
	assert.Equal(t, sasl.Authenticated{Mech: "EXTERNAL"}, srv)
}
