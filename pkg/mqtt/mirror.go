package mqtt

import (
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/thermlink/pkg/frame"
	fx "github.com/robotalks/thermlink/pkg/framework"
	"github.com/robotalks/thermlink/pkg/metrics"
	"github.com/robotalks/thermlink/pkg/thermal"
)

var topicEscaper = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// Topic builds the topic of a reading: <host>/<zone>. Labels aren't unique
// within a host, zone names are.
func Topic(host, zone string) string {
	return topicEscaper.Replace(host) + "/" + topicEscaper.Replace(zone)
}

// SplitTopic is the inverse of Topic.
func SplitTopic(topic string) (host, zone string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Mirror publishes the reading of every sampled zone as a frame.
type Mirror struct {
	Publisher Publisher
	HostID    string
}

// AddToLoop implements framework.LoopAdder.
func (m *Mirror) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvActuate, m)
}

// Control implements framework.Controller.
func (m *Mirror) Control(cc fx.ControlContext) error {
	snapshot := thermal.SnapshotFrom(cc)
	if snapshot == nil {
		return nil
	}
	var errs fx.AggregatedError
	for _, r := range snapshot.Readings {
		token := m.Publisher.Pub(Topic(m.HostID, r.Zone), frame.Encode(r))
		// a disconnected client fails the token immediately.
		if token.WaitTimeout(0) && token.Error() != nil {
			errs.Add(token.Error())
			continue
		}
		metrics.MirrorPublished.Inc()
	}
	return errs.Aggregate()
}

// Sample is a reading received from the broker. Reading.Zone is taken
// from the topic.
type Sample struct {
	Host    string
	Reading thermal.Reading
}

// Watch subscribes to all mirrored readings. Payloads that don't decode
// are logged and dropped.
func Watch(q *Queue, fn func(Sample)) *Subscription {
	return q.Sub("#", func(topic string, payload []byte) {
		host, zone, ok := SplitTopic(topic)
		if !ok {
			glog.V(2).Infof("ignore topic %q", topic)
			return
		}
		r, err := frame.Decode(string(payload))
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		r.Zone = zone
		fn(Sample{Host: host, Reading: r})
	})
}
