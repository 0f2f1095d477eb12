package ice

import (
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NoCard is the active card of a device before the first SelectCard.
const NoCard = -1

// Device is one box with its active card register. Callers must select a
// card before any command whose meaning depends on it; Device never
// re-selects on its own and never reorders commands.
type Device struct {
	box  int
	ch   *Channel
	card int
}

// NewDevice wraps an open channel as box number box.
func NewDevice(box int, ch *Channel) *Device {
	return &Device{
		box:  box,
		ch:   ch,
		card: NoCard,
	}
}

// OpenDevice opens the box at address.
func OpenDevice(box int, address string, open Opener, settle time.Duration) (*Device, error) {
	ch, err := OpenChannel(address, open, settle)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "box %d", box)
	}
	return NewDevice(box, ch), nil
}

// Box returns the ordinal of the box.
func (d *Device) Box() int {
	return d.box
}

// Address returns the serial address of the box.
func (d *Device) Address() string {
	return d.ch.Address()
}

// ActiveCard returns the last selected card, or NoCard.
func (d *Device) ActiveCard() int {
	return d.card
}

// SelectCard makes card the target of subsequent commands. A failure leaves
// the device unusable for the rest of the run. A rejected selection returns
// ErrInvalidCommand and keeps the previous active card.
func (d *Device) SelectCard(card int) (string, error) {
	logrus.WithFields(logrus.Fields{
		"box":  d.box,
		"card": card,
	}).Trace("Selecting card")

	resp, err := d.ch.Send(fmt.Sprintf("#slave %d", card))
	if err != nil && !IsResponseError(err) {
		return resp, pkgerrors.Wrapf(err, "failed to select card %d on box %d", card, d.box)
	}
	if err == nil {
		if _, cerr := ClassifyResponse(resp); cerr != nil {
			return resp, pkgerrors.Wrapf(cerr, "box %d rejected card %d", d.box, card)
		}
	}
	d.card = card

	return resp, err
}

// Send issues cmd against the active card.
func (d *Device) Send(cmd string) (string, error) {
	return d.ch.Send(cmd)
}

// Close releases the box. Calling it more than once is harmless.
func (d *Device) Close() {
	d.ch.Close()
}
