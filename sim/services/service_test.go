package services

import (
	"github.com/ricardofares/ispd-exa-engine-ross/sim"
)

// scheduledCall records one Schedule invocation on the fake kernel.
type scheduledCall struct {
	target sim.ServiceID
	msg    *sim.Message
	at     float64
}

// fakeKernel records scheduled events instead of delivering them, so tests
// can drive forward/reverse/commit in controlled, adversarial orders.
type fakeKernel struct {
	calls []scheduledCall
}

func (k *fakeKernel) Schedule(target sim.ServiceID, msg *sim.Message, at float64) {
	k.calls = append(k.calls, scheduledCall{target: target, msg: msg, at: at})
}

func (k *fakeKernel) reset() {
	k.calls = nil
}
