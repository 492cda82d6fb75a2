package services

import (
	"github.com/sirupsen/logrus"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
)

// Dummy is a stateless sink. It fills logical-process slots left over when
// the simulated entities do not divide evenly across processes; everything it
// receives is dropped.
type Dummy struct {
	id sim.ServiceID
}

// NewDummy builds a dummy service at the given slot.
func NewDummy(id sim.ServiceID) *Dummy {
	return &Dummy{id: id}
}

func (d *Dummy) Init() {}

func (d *Dummy) Forward(msg *sim.Message, now float64) {
	logrus.Debugf("dummy %d: dropped %s at %.4f", d.id, msg.Type, now)
}

func (d *Dummy) Reverse(msg *sim.Message, now float64) {}

func (d *Dummy) Commit(msg *sim.Message, now float64) {}

func (d *Dummy) Finish() {}
