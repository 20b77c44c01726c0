package host

import (
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/thermlink/pkg/frame"
	fx "github.com/robotalks/thermlink/pkg/framework"
	"github.com/robotalks/thermlink/pkg/metrics"
	"github.com/robotalks/thermlink/pkg/thermal"
)

// Sender writes the selected zone of each snapshot as a frame.
type Sender struct {
	Zone   string
	Writer *frame.Writer
}

// NewSender creates a Sender writing to w.
func NewSender(zone string, w io.Writer) *Sender {
	return &Sender{Zone: zone, Writer: frame.NewWriter(w)}
}

// AddToLoop implements framework.LoopAdder.
func (s *Sender) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvActuate, s)
}

// Control implements framework.Controller.
func (s *Sender) Control(cc fx.ControlContext) error {
	snapshot := thermal.SnapshotFrom(cc)
	if snapshot == nil {
		return nil
	}
	r, ok := thermal.Find(snapshot.Readings, s.Zone)
	if !ok {
		glog.V(2).Infof("%s not available, nothing sent", s.Zone)
		return nil
	}
	if err := s.Writer.WriteReading(r); err != nil {
		metrics.LinkWriteErrors.Inc()
		return fmt.Errorf("send %s: %w", s.Zone, err)
	}
	metrics.FramesSent.Inc()
	glog.V(4).Infof("sent %s %.1f", r.Label, r.Celsius)
	return nil
}
