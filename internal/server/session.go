package server

import (
	"bufio"
	"net"

	"github.com/google/uuid"
)

// session is one client connection. It moves one way through two phases:
// ingestion, where lines mutate the store, and query, where lines are
// answered. The transition is triggered by a line that is exactly "EOF" and
// never reverts.
//
// The query flag is read and written only from the processing loop; the
// reader goroutine just splits the stream into lines.
type session struct {
	id    string // UUIDv7, log correlation only; never on the wire
	conn  net.Conn
	query bool
}

func newSession(conn net.Conn) *session {
	return &session{
		id:   uuid.Must(uuid.NewV7()).String(),
		conn: conn,
	}
}

// readLines splits the connection into lines and enqueues each as a request,
// followed by a hangup request when the stream ends (client disconnect or
// read error - both just end the session).
//
// Runs on its own goroutine, one per connection. Ordering within a session
// is preserved because this is the only goroutine enqueuing for it.
func (sess *session) readLines(q *requestQueue) {
	scanner := bufio.NewScanner(sess.conn)
	for scanner.Scan() {
		if !q.Enqueue(request{sess: sess, line: scanner.Text()}) {
			return // server shutting down
		}
	}
	q.Enqueue(request{sess: sess, hangup: true})
}
