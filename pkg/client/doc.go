/*
Package client provides a fault-tolerant Go client for the messaging
cluster.

The client is given the full set of cluster endpoints. It discovers the
leader by sweeping the endpoints with LeaderPing, follows the redirect
detail ("Not the leader. Try <host:port>") whenever leadership moves, and
retries leadership-related failures with exponential backoff. Errors that
are not about leadership (bad session, unknown user, duplicate username)
are returned to the caller unchanged.

A session established by CreateAccount or Login is remembered inside the
client, so subsequent calls need only the domain arguments:

	c := client.New([]string{"10.0.0.1:5000", "10.0.0.2:5000", "10.0.0.3:5000"})
	defer c.Close()

	if err := c.CreateAccount(ctx, "alice", hash); err != nil { ... }
	if err := c.SendMessage(ctx, bobID, "hello"); err != nil { ... }

Connections are created lazily per endpoint and cached for the life of the
client. All methods are safe for concurrent use.
*/
package client
