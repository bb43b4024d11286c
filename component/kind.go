package component

// Kind is the closed set of unit types the showroom knows about.
// Host type tags are translated to a Kind once, at registration.
type Kind int

const (
	// KindOther is any unit outside the showroom's own set
	KindOther Kind = iota
	KindSlot
	KindModel
	KindBox
	KindCamera
	KindCameraInput
	KindCapture
)

// Host type tags
const (
	TagSlot        = "mp.slot"
	TagModel       = "mp.fbxLoader"
	TagBox         = "mp.orientedBox"
	TagCamera      = "mp.camera"
	TagCameraInput = "mp.cameraInput"
	TagCapture     = "mp.customComponent"
)

// String returns a short name for the kind
func (k Kind) String() string {
	switch k {
	case KindSlot:
		return "slot"
	case KindModel:
		return "model"
	case KindBox:
		return "box"
	case KindCamera:
		return "camera"
	case KindCameraInput:
		return "camera-input"
	case KindCapture:
		return "capture"
	default:
		return "other"
	}
}
