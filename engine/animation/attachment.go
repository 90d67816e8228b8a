package animation

import (
	"encoding/json"
	"fmt"
)

// AttachmentType discriminates the closed set of attachment variants.
type AttachmentType int

const (
	AttachmentTypeBitmap AttachmentType = iota
	AttachmentTypeMesh
	AttachmentTypeLinkedMesh
	AttachmentTypePath
)

func (t AttachmentType) String() string {
	switch t {
	case AttachmentTypeBitmap:
		return "bitmap"
	case AttachmentTypeMesh:
		return "mesh"
	case AttachmentTypeLinkedMesh:
		return "linkedmesh"
	case AttachmentTypePath:
		return "path"
	default:
		return "unknown"
	}
}

// Attachment is a tagged variant; exactly one of the pointer fields is
// non-nil, selected by Type.
type Attachment struct {
	Type       AttachmentType
	Bitmap     *BitmapAttachment
	Mesh       *MeshAttachment
	LinkedMesh *LinkedMeshAttachment
	Path       *PathAttachment
}

func (a *Attachment) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Type {
	case "", "bitmap":
		a.Type = AttachmentTypeBitmap
		a.Bitmap = &BitmapAttachment{ScaleX: 1, ScaleY: 1, Color: RGBAWhite()}
		return json.Unmarshal(data, a.Bitmap)
	case "mesh":
		a.Type = AttachmentTypeMesh
		a.Mesh = &MeshAttachment{Color: RGBAWhite()}
		return json.Unmarshal(data, a.Mesh)
	case "linkedmesh":
		a.Type = AttachmentTypeLinkedMesh
		a.LinkedMesh = &LinkedMeshAttachment{Color: RGBAWhite()}
		return json.Unmarshal(data, a.LinkedMesh)
	case "path":
		a.Type = AttachmentTypePath
		a.Path = &PathAttachment{}
		return json.Unmarshal(data, a.Path)
	default:
		return fmt.Errorf("unknown attachment type %q", probe.Type)
	}
}

// BitmapAttachment is a single textured quad placed relative to its
// slot's bone.
type BitmapAttachment struct {
	FilePath          string  `json:"file"`
	PositionX         float32 `json:"x"`
	PositionY         float32 `json:"y"`
	RotationInDegrees float32 `json:"rotation"`
	ScaleX            float32 `json:"scaleX"`
	ScaleY            float32 `json:"scaleY"`
	Width             float32 `json:"width"`
	Height            float32 `json:"height"`
	Color             RGBA    `json:"color"`
}

// MeshAttachment is a deformable triangle mesh. Vertices are either
// unweighted local positions (BoneCounts empty, Vertices is x,y pairs)
// or skinned (BoneCounts[i] bones per vertex, Weights packed as
// boneIndex, x, y, weight quads).
type MeshAttachment struct {
	FilePath   string    `json:"file"`
	Color      RGBA      `json:"color"`
	Width      float32   `json:"width"`
	Height     float32   `json:"height"`
	Vertices   []float32 `json:"vertices"`
	UVs        []float32 `json:"uvs"`
	Triangles  []uint16  `json:"triangles"`
	BoneCounts []int32   `json:"boneCounts"`
	Weights    []float32 `json:"weights"`
}

// Skinned reports whether the mesh carries per-vertex bone weights.
func (m *MeshAttachment) Skinned() bool {
	return len(m.BoneCounts) > 0
}

// VertexCount is the number of mesh vertices regardless of weighting.
func (m *MeshAttachment) VertexCount() int {
	if m.Skinned() {
		return len(m.BoneCounts)
	}
	return len(m.Vertices) / 2
}

// LinkedMeshAttachment reuses the geometry of a parent mesh from
// (possibly) another skin, with its own texture and color. When Deform
// is set, deform timelines keyed on the parent also apply here.
type LinkedMeshAttachment struct {
	FilePath string  `json:"file"`
	ParentID string  `json:"parent"`
	Skin     string  `json:"skin"`
	Deform   bool    `json:"deform"`
	Width    float32 `json:"width"`
	Height   float32 `json:"height"`
	Color    RGBA    `json:"color"`
}

// PathAttachment is an invisible cubic bezier spline consumed by path
// constraints. Vertices hold 2 floats per point, 3 points per curve
// segment (anchor, control out, control in); a closed path wraps the
// final segment back to point zero.
type PathAttachment struct {
	Closed        bool      `json:"closed"`
	ConstantSpeed bool      `json:"constantSpeed"`
	Lengths       []float32 `json:"lengths"`
	VertexCount   int       `json:"vertexCount"`
	Vertices      []float32 `json:"vertices"`
	Weights       []float32 `json:"weights"`
	BoneCounts    []int32   `json:"boneCounts"`
}

// Skinned reports whether path points are bone-weighted.
func (p *PathAttachment) Skinned() bool {
	return len(p.BoneCounts) > 0
}

// CurveCount is the number of bezier segments. Points repeat as
// anchor, control, control; a closed path gains one wrap-around
// segment back to point zero.
func (p *PathAttachment) CurveCount() int {
	points := p.VertexCount
	if points == 0 {
		points = len(p.Vertices) / 2
	}
	if points < 3 {
		return 0
	}
	if p.Closed {
		return points / 3
	}
	return (points - 1) / 3
}
