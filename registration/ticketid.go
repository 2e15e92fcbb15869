package registration

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	ticketIDPrefix = "DND25"
	ticketIDLength = 6

	// No 0/O or 1/I, so the code survives being read over the phone.
	ticketIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
)

// NewTicketID mints the human-shareable ticket code, distinct from the
// internal registration ID.
func NewTicketID() string {
	var sb strings.Builder
	sb.WriteString(ticketIDPrefix)
	sb.WriteByte('-')

	for range ticketIDLength {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(ticketIDAlphabet))))
		if err != nil {
			panic("failed to read from crypto/rand")
		}
		sb.WriteByte(ticketIDAlphabet[n.Int64()])
	}

	return sb.String()
}
