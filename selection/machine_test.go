package selection

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/catalog"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/discovery"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/unitregistry"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/box"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/camera"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/model"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/slot"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SelectionChanged(c Change) error {
	args := m.Called(c)
	return args.Error(0)
}

func (m *mockNotifier) Name() string { return "mock" }

type MachineSuite struct {
	suite.Suite
	rt       *component.Runtime
	cam      component.ComponentHandle
	machine  *Machine
	notifier *mockNotifier
	slots    []discovery.SlotNode
	decor    component.ComponentHandle
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) SetupTest() {
	registry := component.NewRegistry()
	s.Require().NoError(unitregistry.Register(registry, unitregistry.Options{}))
	s.rt = component.NewRuntime(registry, component.Dependencies{})

	camNode := s.rt.CreateNode("camera")
	var err error
	s.cam, err = s.rt.AddComponent(camNode, component.TagCameraInput)
	s.Require().NoError(err)
	s.Require().NoError(s.rt.StartNode(camNode))

	cat, err := catalog.New([]catalog.Item{
		{Name: "oak-chair", URL: "assets/oak-chair.fbx", Category: "chair",
			Position: types.Vec3(0, 0, 0.1), Rotation: types.Vec3(0, 90, 0), Scale: types.Vec3(0.01, 0.01, 0.01)},
		{Name: "sofa", URL: "assets/sofa.fbx", Category: "sofa"},
	}, map[string]string{"slot-1": "chair", "slot-2": "sofa"})
	s.Require().NoError(err)

	s.notifier = &mockNotifier{}
	s.machine = New(s.rt, Config{
		CameraInput: s.cam,
		Catalog:     cat,
		Notifiers:   []Notifier{s.notifier},
	})

	d := discovery.New(s.rt, nil, s.machine.Spies()...)
	s.addNode(d, "slot-1", types.Vec3(1, 0, 2), component.TagSlot, component.TagModel, component.TagBox)
	s.addNode(d, "slot-2", types.Vec3(4, 0, -1), component.TagSlot, component.TagModel, component.TagBox)
	decor := s.addNode(d, "decor", types.Vec3(0, 0, 0), component.TagBox)
	comps, err := s.rt.Components(decor)
	s.Require().NoError(err)
	s.decor = comps[0]

	s.slots = d.Slots()
	s.Require().Len(s.slots, 2)
	s.machine.SetSlots(s.slots)
}

func (s *MachineSuite) TearDownTest() {
	s.rt.Close()
}

func (s *MachineSuite) addNode(d *discovery.Discoverer, name string, pos types.Vector3, tags ...string) component.NodeHandle {
	n := s.rt.CreateNode(name)
	s.Require().NoError(s.rt.SetPosition(n, pos))
	for _, tag := range tags {
		_, err := s.rt.AddComponent(n, tag)
		s.Require().NoError(err)
	}
	s.Require().NoError(d.Visit(n))
	s.Require().NoError(s.rt.StartNode(n))
	return n
}

func (s *MachineSuite) click(i int) {
	s.Require().NoError(s.rt.Interact(s.slots[i].Box, component.Event{Type: component.EventClick}))
}

func (s *MachineSuite) palette(h component.ComponentHandle) box.Palette {
	p, err := box.Current(s.rt, h)
	s.Require().NoError(err)
	return p
}

func (s *MachineSuite) focus() (types.Vector3, bool) {
	in, err := s.rt.Inputs(s.cam)
	s.Require().NoError(err)
	return component.Get[types.Vector3](in, camera.InputFocus)
}

func (s *MachineSuite) selectedBoxes() int {
	n := 0
	for _, sl := range s.slots {
		if s.palette(sl.Box) == box.Selected {
			n++
		}
	}
	return n
}

func (s *MachineSuite) TestSelectSwitchDeselect() {
	s.notifier.On("SelectionChanged", mock.MatchedBy(func(c Change) bool {
		return c.Transition == TransitionSelect && c.Slot == "slot-1" && c.Category == "chair" && len(c.Items) == 1
	})).Return(nil).Once()
	s.notifier.On("SelectionChanged", mock.MatchedBy(func(c Change) bool {
		return c.Transition == TransitionSwitch && c.Slot == "slot-2" && c.Previous == "slot-1"
	})).Return(nil).Once()
	s.notifier.On("SelectionChanged", mock.MatchedBy(func(c Change) bool {
		return c.Transition == TransitionDeselect && !c.Selected() && c.Previous == "slot-2"
	})).Return(nil).Once()

	s.click(0)
	sel, ok := s.machine.Selected()
	s.Require().True(ok)
	s.Equal("slot-1", sel.Name)
	s.Equal(box.Selected, s.palette(s.slots[0].Box))
	f, ok := s.focus()
	s.Require().True(ok)
	s.Equal(types.Vec3(1, 0, 2), f)

	s.click(1)
	sel, _ = s.machine.Selected()
	s.Equal("slot-2", sel.Name)
	s.Equal(box.Unselected, s.palette(s.slots[0].Box))
	s.Equal(box.Selected, s.palette(s.slots[1].Box))
	f, _ = s.focus()
	s.Equal(types.Vec3(4, 0, -1), f)

	s.click(1)
	_, ok = s.machine.Selected()
	s.False(ok)
	s.Equal(box.Unselected, s.palette(s.slots[1].Box))
	_, ok = s.focus()
	s.False(ok, "focus is released on deselect")

	s.notifier.AssertExpectations(s.T())
}

func (s *MachineSuite) TestAtMostOneSelected() {
	s.notifier.On("SelectionChanged", mock.Anything).Return(nil)

	for _, i := range []int{0, 1, 1, 0, 0, 1, 0, 1} {
		s.click(i)
		s.LessOrEqual(s.selectedBoxes(), 1)
		_, selected := s.machine.Selected()
		if selected {
			s.Equal(1, s.selectedBoxes())
		} else {
			s.Equal(0, s.selectedBoxes())
		}
	}
}

func (s *MachineSuite) TestDoubleClickRestoresState() {
	s.notifier.On("SelectionChanged", mock.Anything).Return(nil)

	s.click(0)
	s.click(0)
	_, ok := s.machine.Selected()
	s.False(ok)
	for _, sl := range s.slots {
		s.Equal(box.Unselected, s.palette(sl.Box))
	}
	_, ok = s.focus()
	s.False(ok)
	s.notifier.AssertNumberOfCalls(s.T(), "SelectionChanged", 2)
}

func (s *MachineSuite) TestFailedSwitchKeepsPreviousSelection() {
	s.notifier.On("SelectionChanged", mock.Anything).Return(nil).Once()
	s.click(0)

	target := s.slots[1]
	s.Require().NoError(s.rt.DestroyComponent(target.Box))

	err := s.machine.HandleClick(component.Event{Type: component.EventClick, Component: target.Box, Node: target.Node})
	s.Require().Error(err)
	s.ErrorIs(err, errors.ErrDestroyed)

	sel, ok := s.machine.Selected()
	s.Require().True(ok)
	s.Equal("slot-1", sel.Name)
	s.Equal(box.Selected, s.palette(s.slots[0].Box))
	focus, ok := s.focus()
	s.Require().True(ok)
	s.Equal(types.Vec3(1, 0, 2), focus)
	s.notifier.AssertExpectations(s.T())
}

func (s *MachineSuite) TestClickOutsideSlotIgnored() {
	s.Require().NoError(s.rt.Interact(s.decor, component.Event{Type: component.EventClick}))
	_, ok := s.machine.Selected()
	s.False(ok)
	s.Equal(box.Unselected, s.palette(s.decor))
	s.notifier.AssertNotCalled(s.T(), "SelectionChanged", mock.Anything)
}

func (s *MachineSuite) TestHoverSuppressesCameraClick() {
	in, err := s.rt.Inputs(s.cam)
	s.Require().NoError(err)

	s.Require().NoError(s.rt.Interact(s.slots[0].Box, component.Event{Type: component.EventHover, Hover: true}))
	suppress, _ := component.Get[bool](in, camera.InputSuppressClick)
	s.False(suppress)

	s.Require().NoError(s.rt.Interact(s.slots[0].Box, component.Event{Type: component.EventHover, Hover: false}))
	suppress, _ = component.Get[bool](in, camera.InputSuppressClick)
	s.True(suppress)
}

func (s *MachineSuite) TestAssign() {
	s.notifier.On("SelectionChanged", mock.Anything).Return(nil)

	err := s.machine.AssignByName("oak-chair")
	s.True(errors.Is(err, errors.ErrNoSelection))
	s.True(errors.IsInvalid(err))

	s.click(0)
	s.Require().NoError(s.machine.AssignByName("oak-chair"))

	slotIn, err := s.rt.Inputs(s.slots[0].Slot)
	s.Require().NoError(err)
	ref, _ := component.Get[string](slotIn, slot.InputModel)
	s.Equal("assets/oak-chair.fbx", ref)

	modelIn, err := s.rt.Inputs(s.slots[0].Model)
	s.Require().NoError(err)
	url, _ := component.Get[string](modelIn, model.InputURL)
	s.Equal("assets/oak-chair.fbx", url)
	rot, _ := component.Get[types.Vector3](modelIn, model.InputLocalRotation)
	s.Equal(types.Vec3(0, 90, 0), rot)
	scale, _ := component.Get[types.Vector3](modelIn, model.InputLocalScale)
	s.Equal(types.Vec3(0.01, 0.01, 0.01), scale)

	s.Error(s.machine.AssignByName("missing"))
}

func (s *MachineSuite) TestNotifierFailureDoesNotBlockSelection() {
	s.notifier.On("SelectionChanged", mock.Anything).Return(errors.ErrConnectionLost)

	var seen []Change
	s.machine.AddNotifier(NotifierFunc(func(c Change) error {
		seen = append(seen, c)
		return nil
	}))

	s.click(1)
	_, ok := s.machine.Selected()
	s.True(ok)
	s.Require().Len(seen, 1)
	s.Equal("sofa", seen[0].Category)
}

func TestMachineWithoutCamera(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, unitregistry.Register(registry, unitregistry.Options{}))
	rt := component.NewRuntime(registry, component.Dependencies{})
	defer rt.Close()

	m := New(rt, Config{})
	d := discovery.New(rt, nil, m.Spies()...)
	n := rt.CreateNode("slot")
	for _, tag := range []string{component.TagSlot, component.TagModel, component.TagBox} {
		_, err := rt.AddComponent(n, tag)
		require.NoError(t, err)
	}
	require.NoError(t, d.Visit(n))
	require.NoError(t, rt.StartNode(n))
	m.SetSlots(d.Slots())

	slots := d.Slots()
	require.NoError(t, rt.Interact(slots[0].Box, component.Event{Type: component.EventClick}))
	_, ok := m.Selected()
	require.True(t, ok)
	_, ok = m.Category()
	require.False(t, ok)
	require.Empty(t, m.Items())
}
