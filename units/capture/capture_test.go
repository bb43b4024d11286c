package capture

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	capdev "github.com/rodvb29/Furniture-Adding-by-Matterport/capture"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/metric"
)

type PreviewSuite struct {
	suite.Suite
	devices *capdev.StaticDevices
	metrics *metric.Metrics
	rt      *component.Runtime
	node    component.NodeHandle
	unit    component.ComponentHandle
}

func TestPreviewSuite(t *testing.T) {
	suite.Run(t, new(PreviewSuite))
}

func (s *PreviewSuite) SetupTest() {
	s.devices = capdev.NewStaticDevices(
		capdev.Device{ID: "cam-1", Kind: capdev.VideoInput, Width: 1280, Height: 720},
		capdev.Device{ID: "cam-2", Kind: capdev.VideoInput, Width: 640, Height: 480},
	)
	s.metrics = metric.NewMetrics()

	registry := component.NewRegistry()
	s.Require().NoError(Register(registry, s.devices))

	s.rt = component.NewRuntime(registry, component.Dependencies{Metrics: s.metrics})
	s.node = s.rt.CreateNode("capture")
	h, err := s.rt.AddComponent(s.node, component.TagCapture)
	s.Require().NoError(err)
	s.unit = h
	s.Require().NoError(s.rt.StartNode(s.node))
}

func (s *PreviewSuite) TearDownTest() {
	s.rt.Close()
}

func (s *PreviewSuite) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.rt.Flush(ctx))
}

func (s *PreviewSuite) stream() *capdev.Stream {
	out, err := s.rt.Outputs(s.unit)
	s.Require().NoError(err)
	stream, _ := component.Get[*capdev.Stream](out, OutputStream)
	return stream
}

func (s *PreviewSuite) TestStreamLifecycleWithDefaultDevice() {
	// deviceId stays nil: the default video device is used
	s.Require().NoError(s.rt.SetInput(s.unit, InputEnabled, true))
	s.rt.Tick(time.Millisecond)
	s.flush()

	stream := s.stream()
	s.Require().NotNil(stream)
	s.Equal("cam-1", stream.Tracks[0].Settings.DeviceID)
	s.Equal(1, s.devices.LiveTracks())

	out, _ := s.rt.Outputs(s.unit)
	aspect, _ := component.Get[float64](out, OutputAspect)
	s.InDelta(16.0/9.0, aspect, 1e-9)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CaptureAcquisitions.WithLabelValues("ok")))

	s.Require().NoError(s.rt.SetInput(s.unit, InputEnabled, false))
	s.rt.Tick(time.Millisecond)
	s.Nil(s.stream())
	s.False(stream.Active())
	s.Equal(0, s.devices.LiveTracks())
}

func (s *PreviewSuite) TestClickAcquiresOnce() {
	s.Require().NoError(s.rt.Interact(s.unit, component.Event{Type: component.EventClick}))
	s.Require().NoError(s.rt.Interact(s.unit, component.Event{Type: component.EventClick}))
	s.flush()

	s.NotNil(s.stream())
	s.Equal(1, s.devices.Requests(), "a pending request is not duplicated")

	s.Require().NoError(s.rt.Interact(s.unit, component.Event{Type: component.EventClick}))
	s.flush()
	s.Equal(1, s.devices.Requests(), "an active stream is kept")
}

func (s *PreviewSuite) TestCloseReleasesGrantedStream() {
	s.Require().NoError(s.rt.SetInput(s.unit, InputEnabled, true))
	s.rt.Tick(time.Millisecond)

	// granted, but the continuation has not run on the tick goroutine
	s.Require().Eventually(func() bool {
		return s.devices.LiveTracks() == 1
	}, 2*time.Second, time.Millisecond)

	s.rt.Close()
	s.Eventually(func() bool {
		return s.devices.LiveTracks() == 0
	}, 2*time.Second, 5*time.Millisecond)
	s.Equal(1, s.devices.Requests())
}

func (s *PreviewSuite) TestDeviceChangeReleasesOldStream() {
	s.Require().NoError(s.rt.SetInput(s.unit, InputEnabled, true))
	s.rt.Tick(time.Millisecond)
	s.flush()
	first := s.stream()
	s.Require().NotNil(first)

	s.Require().NoError(s.rt.SetInput(s.unit, InputDeviceID, "cam-2"))
	s.rt.Tick(time.Millisecond)
	s.flush()

	second := s.stream()
	s.Require().NotNil(second)
	s.False(first.Active())
	s.Equal("cam-2", second.Tracks[0].Settings.DeviceID)
	s.Equal(1, s.devices.LiveTracks())
}

func (s *PreviewSuite) TestDestroyWhilePendingReleasesResult() {
	s.Require().NoError(s.rt.SetInput(s.unit, InputEnabled, true))
	s.rt.Tick(time.Millisecond)

	s.Require().NoError(s.rt.DestroyComponent(s.unit))
	s.flush()
	s.Equal(0, s.devices.LiveTracks())
}

func (s *PreviewSuite) TestDestroyReleasesStream() {
	s.Require().NoError(s.rt.SetInput(s.unit, InputEnabled, true))
	s.rt.Tick(time.Millisecond)
	s.flush()
	s.Equal(1, s.devices.LiveTracks())

	s.Require().NoError(s.rt.DestroyComponent(s.unit))
	s.Equal(0, s.devices.LiveTracks())
}

func (s *PreviewSuite) TestRejectedAcquisitionReportsError() {
	s.devices.Reject(fmt.Errorf("permission denied"))
	s.Require().NoError(s.rt.SetInput(s.unit, InputEnabled, true))
	s.rt.Tick(time.Millisecond)
	s.flush()

	s.Nil(s.stream())
	out, _ := s.rt.Outputs(s.unit)
	msg, ok := component.Get[string](out, OutputError)
	s.True(ok)
	s.Contains(msg, "permission denied")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CaptureAcquisitions.WithLabelValues("error")))
}

func TestPreviewWithoutDevices(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry, nil))
	rt := component.NewRuntime(registry, component.Dependencies{})
	defer rt.Close()

	n := rt.CreateNode("capture")
	h, err := rt.AddComponent(n, component.TagCapture)
	require.NoError(t, err)
	require.NoError(t, rt.StartNode(n))
	require.NoError(t, rt.Interact(h, component.Event{Type: component.EventClick}))

	out, _ := rt.Outputs(h)
	msg, ok := component.Get[string](out, OutputError)
	assert.True(t, ok)
	assert.NotEmpty(t, msg)
}
