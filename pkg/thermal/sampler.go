package thermal

import (
	"time"

	fx "github.com/robotalks/thermlink/pkg/framework"
	"github.com/robotalks/thermlink/pkg/metrics"
)

// Snapshot is the result of one poll, posted to the loop as a message.
type Snapshot struct {
	Readings []Reading
	// At is the time of the loop iteration which polled the zones.
	At time.Time
}

// Sampler polls a Reader once per loop iteration.
type Sampler struct {
	Reader Reader
}

// NewSampler creates a Sampler.
func NewSampler(r Reader) *Sampler {
	return &Sampler{Reader: r}
}

// AddToLoop implements LoopAdder.
func (s *Sampler) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, s)
}

// Control implements Controller.
func (s *Sampler) Control(cc fx.ControlContext) error {
	readings := s.Reader.Read()
	at := cc.Time()
	metrics.ZonesRead.Set(float64(len(readings)))
	metrics.LastSample.Set(float64(at.UnixNano()) / 1e9)
	cc.Messages().AddMessages(&Snapshot{Readings: readings, At: at})
	return nil
}

// SnapshotFrom finds the Snapshot posted in the current iteration.
func SnapshotFrom(cc fx.ControlContext) (snapshot *Snapshot) {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		if s, ok := mc.CurrentMessage().(*Snapshot); ok {
			snapshot = s
			mc.StopProcessing()
		}
	}))
	return
}
