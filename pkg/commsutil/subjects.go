package commsutil

import "fmt"

// Default session subjects. Inbound carries client→server envelopes,
// outbound carries server→client envelopes.
const (
	SubjectSessionInbound  = "proxyhub.session.in"
	SubjectSessionOutbound = "proxyhub.session.out"
)

// BuildInboundSubject builds the inbound subject for a named session.
func BuildInboundSubject(session string) string {
	return fmt.Sprintf("proxyhub.%s.in", session)
}

// BuildOutboundSubject builds the outbound subject for a named session.
func BuildOutboundSubject(session string) string {
	return fmt.Sprintf("proxyhub.%s.out", session)
}
